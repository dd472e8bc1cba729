package panel

import (
	"github.com/goliatone/go-corepanel/pkg/diag"
	"github.com/goliatone/go-corepanel/pkg/monitor"
	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/session"
)

// EventKind tells which field of an Event is set.
type EventKind int

const (
	EventMode EventKind = iota
	EventExtensions
	EventForm
	EventSession
	EventIndicator
	EventDiagnostic
)

func (k EventKind) String() string {
	switch k {
	case EventMode:
		return "mode"
	case EventExtensions:
		return "extensions"
	case EventForm:
		return "form"
	case EventSession:
		return "session"
	case EventIndicator:
		return "indicator"
	case EventDiagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// Event is one notification on the panel bus.
type Event struct {
	Kind       EventKind
	Mode       Mode
	Extensions []Extension
	Change     render.Change
	Session    session.Status
	Update     monitor.Update
	Diagnostic diag.Diagnostic
}

// critical events are never dropped: losing a mode switch or a blocking
// diagnostic leaves the front end showing the wrong surface.
func (ev Event) critical() bool {
	switch ev.Kind {
	case EventMode:
		return true
	case EventDiagnostic:
		return ev.Diagnostic.Severity == diag.Blocking
	default:
		return false
	}
}

// publish never blocks. When the bus is full, critical events queue behind
// earlier critical ones and a single flusher delivers them in order; other
// events are dropped while that queue is non-empty.
func (p *Panel) publish(ev Event) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()

	if len(p.pending) == 0 {
		select {
		case p.events <- ev:
			return
		default:
		}
	}
	if !ev.critical() || p.closed() {
		p.logger.Debug("panel: event dropped", "kind", ev.Kind.String())
		return
	}
	p.pending = append(p.pending, ev)
	if len(p.pending) == 1 {
		go p.flush()
	}
}

func (p *Panel) flush() {
	for {
		p.pendingMu.Lock()
		ev := p.pending[0]
		p.pendingMu.Unlock()

		select {
		case p.events <- ev:
		case <-p.done:
			return
		}

		p.pendingMu.Lock()
		p.pending = p.pending[1:]
		empty := len(p.pending) == 0
		p.pendingMu.Unlock()
		if empty {
			return
		}
	}
}

func (p *Panel) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
