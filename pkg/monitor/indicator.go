package monitor

import "github.com/goliatone/go-corepanel/pkg/rpc"

// Color is the indicator color convention shared by front ends.
type Color string

const (
	Neutral Color = "neutral"
	Amber   Color = "amber"
	Red     Color = "red"
	Green   Color = "green"
)

// Indicator is the visible connection badge.
type Indicator struct {
	Visible bool
	Text    string
	Color   Color
}

// IndicatorFor maps a core state to its badge. Stopped, and anything
// unrecognised, hides the badge.
func IndicatorFor(state rpc.CoreState) Indicator {
	switch state {
	case rpc.CoreStarting:
		return Indicator{Visible: true, Text: "Starting", Color: Amber}
	case rpc.CoreStopping:
		return Indicator{Visible: true, Text: "Stopping", Color: Red}
	case rpc.CoreStarted:
		return Indicator{Visible: true, Text: "Connected", Color: Green}
	default:
		return Indicator{Color: Neutral}
	}
}
