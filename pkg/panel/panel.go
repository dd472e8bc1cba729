package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-corepanel/pkg/diag"
	"github.com/goliatone/go-corepanel/pkg/monitor"
	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/rpc"
	"github.com/goliatone/go-corepanel/pkg/session"
)

const source = "panel"

// ErrExtensionDisabled is returned when opening an extension that is disabled
// or not listed.
var ErrExtensionDisabled = errors.New("panel: extension is disabled")

// Mode is the visible surface.
type Mode int

const (
	ExtensionList Mode = iota
	ExtensionSession
	ConnectionPanel
)

func (m Mode) String() string {
	switch m {
	case ExtensionList:
		return "extensions"
	case ExtensionSession:
		return "session"
	case ConnectionPanel:
		return "connection"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Extension is one row of the extension list.
type Extension struct {
	ID          string
	Title       string
	Description string
	Enabled     bool
}

// Option configures a Panel.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	reporter       diag.Reporter
	eventBuffer    int
	reconnectDelay time.Duration
	renderOptions  []render.Option
}

// WithLogger sets the logger shared by the panel components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithReporter adds a reporter next to the event bus.
func WithReporter(r diag.Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithEventBuffer sets the event channel capacity.
func WithEventBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.eventBuffer = n
		}
	}
}

// WithReconnectDelay sets the status stream reconnect delay.
func WithReconnectDelay(d time.Duration) Option {
	return func(o *options) {
		o.reconnectDelay = d
	}
}

// WithRenderOptions forwards options to the form host.
func WithRenderOptions(opts ...render.Option) Option {
	return func(o *options) {
		o.renderOptions = append(o.renderOptions, opts...)
	}
}

// Panel coordinates the surfaces. Exactly one mode is visible at a time.
type Panel struct {
	extensions rpc.ExtensionHostClient
	logger     *slog.Logger
	reporter   diag.Reporter
	events     chan Event

	host    *render.Host
	session *session.Channel
	monitor *monitor.Monitor

	monitorOnce sync.Once
	closeOnce   sync.Once
	done        chan struct{}

	pendingMu sync.Mutex
	pending   []Event

	mu   sync.Mutex
	mode Mode
	rows []Extension
}

// New wires a panel over the two service clients.
func New(extensions rpc.ExtensionHostClient, core rpc.CoreClient, opts ...Option) *Panel {
	o := options{
		logger:         slog.Default(),
		eventBuffer:    64,
		reconnectDelay: monitor.DefaultReconnectDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	p := &Panel{
		extensions: extensions,
		logger:     o.logger,
		events:     make(chan Event, o.eventBuffer),
		done:       make(chan struct{}),
		mode:       ExtensionList,
	}
	bus := diag.ReporterFunc(func(d diag.Diagnostic) {
		p.publish(Event{Kind: EventDiagnostic, Diagnostic: d})
	})
	p.reporter = diag.Tee(diag.NewLogger(o.logger), o.reporter, bus)

	hostOpts := append([]render.Option{
		render.WithLogger(o.logger),
		render.WithChangeHook(func(c render.Change) {
			p.publish(Event{Kind: EventForm, Change: c})
		}),
	}, o.renderOptions...)
	p.host = render.NewHost(hostOpts...)

	p.session = session.New(extensions, p.host,
		session.WithLogger(o.logger),
		session.WithReporter(p.reporter),
		session.WithOnClosed(p.sessionClosed),
		session.WithStateHook(func(st session.Status) {
			p.publish(Event{Kind: EventSession, Session: st})
		}),
	)
	p.monitor = monitor.New(core,
		monitor.WithLogger(o.logger),
		monitor.WithReporter(p.reporter),
		monitor.WithReconnectDelay(o.reconnectDelay),
		monitor.WithChangeHook(func(up monitor.Update) {
			p.publish(Event{Kind: EventIndicator, Update: up})
		}),
	)
	return p
}

// Events returns the bus. When the buffer is full, mode changes and blocking
// diagnostics are held until read; other events are dropped.
func (p *Panel) Events() <-chan Event { return p.events }

// Host returns the form host of the session surface.
func (p *Panel) Host() *render.Host { return p.host }

// Session returns the extension session channel.
func (p *Panel) Session() *session.Channel { return p.session }

// Monitor returns the core connection monitor.
func (p *Panel) Monitor() *monitor.Monitor { return p.monitor }

// Reporter returns the reporter feeding the bus, for front ends that raise
// their own diagnostics.
func (p *Panel) Reporter() diag.Reporter { return p.reporter }

// Mode returns the visible surface.
func (p *Panel) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Extensions returns the last listed rows.
func (p *Panel) Extensions() []Extension {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Extension(nil), p.rows...)
}

func (p *Panel) setMode(mode Mode) {
	p.mu.Lock()
	prev := p.mode
	p.mode = mode
	p.mu.Unlock()

	if prev == ExtensionSession && mode != ExtensionSession {
		p.session.Release()
	}
	if prev != mode {
		p.logger.Debug("panel: mode", "from", prev.String(), "to", mode.String())
		p.publish(Event{Kind: EventMode, Mode: mode})
	}
}

// ShowExtensionList switches to the list and refreshes it from the core.
func (p *Panel) ShowExtensionList(ctx context.Context) ([]Extension, error) {
	p.setMode(ExtensionList)

	list, err := p.extensions.ListExtensions(ctx, &rpc.Empty{})
	if err != nil {
		p.reporter.Report(diag.Diagnostic{Severity: diag.Error, Source: source, Message: "could not list extensions", Err: err})
		return nil, fmt.Errorf("panel: list extensions: %w", err)
	}

	rows := make([]Extension, 0, len(list.Extensions))
	for _, e := range list.Extensions {
		rows = append(rows, Extension{ID: e.ID, Title: e.Title, Description: e.Description, Enabled: e.Enable})
	}
	p.mu.Lock()
	p.rows = rows
	p.mu.Unlock()

	p.publish(Event{Kind: EventExtensions, Extensions: append([]Extension(nil), rows...)})
	return rows, nil
}

// SetEnabled toggles an extension. The local row changes only when the core
// accepted the edit.
func (p *Panel) SetEnabled(ctx context.Context, id string, enable bool) error {
	if _, err := p.extensions.EditExtension(ctx, &rpc.EditExtensionRequest{ExtensionID: id, Enable: enable}); err != nil {
		p.reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Source:   source,
			Message:  fmt.Sprintf("could not update extension %s", id),
			Err:      err,
		})
		return fmt.Errorf("panel: edit %s: %w", id, err)
	}

	p.mu.Lock()
	for i := range p.rows {
		if p.rows[i].ID == id {
			p.rows[i].Enabled = enable
		}
	}
	rows := append([]Extension(nil), p.rows...)
	p.mu.Unlock()

	p.publish(Event{Kind: EventExtensions, Extensions: rows})
	return nil
}

// OpenExtension shows the session surface for id. Disabled and unlisted
// extensions raise a blocking diagnostic and are never connected.
func (p *Panel) OpenExtension(ctx context.Context, id string) error {
	p.mu.Lock()
	var row *Extension
	for i := range p.rows {
		if p.rows[i].ID == id {
			row = &p.rows[i]
			break
		}
	}
	enabled := row != nil && row.Enabled
	p.mu.Unlock()

	if !enabled {
		p.reporter.Report(diag.Diagnostic{
			Severity: diag.Blocking,
			Source:   source,
			Message:  fmt.Sprintf("Extension %s is disabled. Enable it before opening it.", id),
		})
		return fmt.Errorf("panel: open %s: %w", id, ErrExtensionDisabled)
	}

	p.setMode(ExtensionSession)
	return p.session.Open(ctx, id)
}

// ShowConnectionPanel switches to the connection panel. The first call
// starts the monitor loop bound to ctx.
func (p *Panel) ShowConnectionPanel(ctx context.Context) {
	p.setMode(ConnectionPanel)
	p.monitorOnce.Do(func() {
		go func() {
			if err := p.monitor.Run(ctx); err != nil {
				p.logger.Warn("panel: monitor stopped", "error", err)
			}
		}()
	})
}

// Close releases the session and discards undelivered events. The monitor
// ends with the context given to ShowConnectionPanel.
func (p *Panel) Close() {
	p.closeOnce.Do(func() { close(p.done) })
	p.session.Release()
}

func (p *Panel) sessionClosed(extensionID string) {
	p.logger.Info("panel: extension closed", "extension", extensionID)

	p.mu.Lock()
	prev := p.mode
	if prev == ExtensionSession {
		p.mode = ExtensionList
	}
	rows := append([]Extension(nil), p.rows...)
	p.mu.Unlock()

	if prev == ExtensionSession {
		p.publish(Event{Kind: EventMode, Mode: ExtensionList})
		p.publish(Event{Kind: EventExtensions, Extensions: rows})
	}
}
