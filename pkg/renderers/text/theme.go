package text

import "github.com/charmbracelet/lipgloss"

// Theme groups the styles used to draw forms and panel chrome.
type Theme struct {
	Header  lipgloss.Style
	Frame   lipgloss.Style
	Panel   lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Alert   lipgloss.Style
	Danger  lipgloss.Style
	Focus   lipgloss.Style
	Button  lipgloss.Style
	Primary lipgloss.Style
}

// DefaultTheme returns the palette shared by the renderer and the TUI.
func DefaultTheme() Theme {
	accent := lipgloss.Color("#00FFFF")
	secondary := lipgloss.Color("#7D7D7D")
	success := lipgloss.Color("#00FF00")
	alert := lipgloss.Color("#FFBF00")
	danger := lipgloss.Color("#FF0055")

	return Theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(secondary),
		Accent: lipgloss.NewStyle().
			Foreground(accent),
		Success: lipgloss.NewStyle().
			Foreground(success),
		Alert: lipgloss.NewStyle().
			Foreground(alert),
		Danger: lipgloss.NewStyle().
			Foreground(danger),
		Focus: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Button: lipgloss.NewStyle().
			Foreground(secondary),
		Primary: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
	}
}
