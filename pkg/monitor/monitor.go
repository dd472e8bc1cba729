package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tevino/abool"

	"github.com/goliatone/go-corepanel/pkg/diag"
	"github.com/goliatone/go-corepanel/pkg/rpc"
)

const source = "monitor"

// DefaultReconnectDelay is the pause between a status stream termination and
// the next attempt.
const DefaultReconnectDelay = time.Second

// ErrRunning is returned by Run when the loop is already running.
var ErrRunning = errors.New("monitor: already running")

// Update is delivered to the change hook whenever a state is applied.
type Update struct {
	State     rpc.CoreState
	Indicator Indicator
	Info      rpc.CoreInfoResponse
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithReconnectDelay overrides DefaultReconnectDelay.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithLogger sets the monitor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithReporter sets where operator-facing diagnostics go.
func WithReporter(r diag.Reporter) Option {
	return func(m *Monitor) {
		if r != nil {
			m.reporter = r
		}
	}
}

// WithChangeHook registers the callback receiving every applied state.
func WithChangeHook(fn func(Update)) Option {
	return func(m *Monitor) {
		m.onChange = fn
	}
}

// Monitor tracks the core state from the status stream and keeps that stream
// connected.
type Monitor struct {
	client   rpc.CoreClient
	delay    time.Duration
	logger   *slog.Logger
	reporter diag.Reporter
	onChange func(Update)
	running  *abool.AtomicBool

	mu        sync.Mutex
	state     rpc.CoreState
	indicator Indicator
	attempts  int
}

// New builds a monitor for client. The initial state is Stopped.
func New(client rpc.CoreClient, opts ...Option) *Monitor {
	m := &Monitor{
		client:    client,
		delay:     DefaultReconnectDelay,
		logger:    slog.Default(),
		reporter:  diag.Discard,
		running:   abool.New(),
		state:     rpc.CoreStopped,
		indicator: IndicatorFor(rpc.CoreStopped),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// State returns the last applied core state.
func (m *Monitor) State() rpc.CoreState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Indicator returns the badge for the last applied state.
func (m *Monitor) Indicator() Indicator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indicator
}

// Attempts returns how many times the status stream has been opened.
func (m *Monitor) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Running reports whether Run is active.
func (m *Monitor) Running() bool {
	return m.running.IsSet()
}

// Run listens to the status stream until ctx ends. Every termination, open
// failures included, is followed by exactly one new attempt after the
// reconnect delay.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.running.SetToIf(false, true) {
		return ErrRunning
	}
	defer m.running.UnSet()

	for {
		err := m.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			m.logger.Warn("monitor: status stream lost", "error", err, "retry_in", m.delay)
		} else {
			m.logger.Info("monitor: status stream ended", "retry_in", m.delay)
		}

		timer := time.NewTimer(m.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (m *Monitor) listen(ctx context.Context) error {
	m.mu.Lock()
	m.attempts++
	m.mu.Unlock()

	stream, err := m.client.CoreInfoListener(ctx, &rpc.Empty{})
	if err != nil {
		return err
	}
	return rpc.Observe(stream, rpc.Observer[rpc.CoreInfoResponse]{
		OnMessage: m.apply,
	})
}

// apply feeds a state into the indicator path shared by the stream and the
// unary calls.
func (m *Monitor) apply(info *rpc.CoreInfoResponse) {
	if info == nil {
		return
	}
	if !info.CoreState.Valid() {
		m.logger.Warn("monitor: unknown core state", "state", string(info.CoreState))
		return
	}

	m.mu.Lock()
	m.state = info.CoreState
	m.indicator = IndicatorFor(info.CoreState)
	up := Update{State: m.state, Indicator: m.indicator, Info: *info}
	m.mu.Unlock()

	if info.MessageType.Failure() {
		msg := info.Message
		if msg == "" {
			msg = string(info.MessageType)
		}
		m.reporter.Report(diag.Diagnostic{Severity: diag.Error, Source: "core", Message: msg})
	}
	m.logger.Debug("monitor: core state", "state", string(up.State), "type", string(info.MessageType))
	if m.onChange != nil {
		m.onChange(up)
	}
}

// Start asks the core to start with configContent. On success the returned
// state is applied at once; on failure the indicator is left unchanged.
func (m *Monitor) Start(ctx context.Context, configContent string) (*rpc.CoreInfoResponse, error) {
	info, err := m.client.Start(ctx, &rpc.StartRequest{ConfigContent: configContent})
	if err != nil {
		m.fail("could not start the core", err)
		return nil, fmt.Errorf("monitor: start: %w", err)
	}
	m.apply(info)
	return info, nil
}

// Stop asks the core to stop. Same indicator rules as Start.
func (m *Monitor) Stop(ctx context.Context) (*rpc.CoreInfoResponse, error) {
	info, err := m.client.Stop(ctx, &rpc.Empty{})
	if err != nil {
		m.fail("could not stop the core", err)
		return nil, fmt.Errorf("monitor: stop: %w", err)
	}
	m.apply(info)
	return info, nil
}

// Request carries the inputs of Connect.
type Request struct {
	// Settings is an optional settings JSON document sent before parsing.
	Settings string
	// Config is the raw configuration content.
	Config string
}

// Connect pushes settings, parses the configuration and starts the core
// with the parsed content, which it returns. A settings failure is reported
// as a warning and skipped; a parse failure aborts with the core message.
func (m *Monitor) Connect(ctx context.Context, req Request) (string, error) {
	if req.Settings != "" {
		if _, err := m.client.ChangeSettings(ctx, &rpc.ChangeSettingsRequest{SettingsJSON: req.Settings}); err != nil {
			m.reporter.Report(diag.Diagnostic{
				Severity: diag.Warning,
				Source:   source,
				Message:  "settings were rejected, continuing without them",
				Err:      err,
			})
		}
	}

	parsed, err := m.client.Parse(ctx, &rpc.ParseRequest{Content: req.Config})
	if err != nil {
		var respErr *rpc.ResponseError
		if errors.As(err, &respErr) {
			m.reporter.Report(diag.Diagnostic{Severity: diag.Error, Source: "core", Message: respErr.Message, Err: err})
		} else {
			m.fail("could not parse the configuration", err)
		}
		return "", fmt.Errorf("monitor: connect: %w", err)
	}

	if _, err := m.Start(ctx, parsed.Content); err != nil {
		return parsed.Content, err
	}
	return parsed.Content, nil
}

func (m *Monitor) fail(msg string, err error) {
	m.reporter.Report(diag.Diagnostic{Severity: diag.Error, Source: source, Message: msg, Err: err})
}
