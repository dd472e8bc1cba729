package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-corepanel/pkg/diag"
	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/rpc"
	"github.com/goliatone/go-corepanel/pkg/schema"
)

const source = "session"

// State is the lifecycle of the session held by a Channel.
type State int

const (
	// Idle means no extension is open.
	Idle State = iota
	// Connecting means the stream is being opened.
	Connecting
	// Active means pushes are being applied.
	Active
	// Ended means the core closed the stream. Open is required to resume.
	Ended
	// Failed means the stream broke. Open is required to resume.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Active:
		return "active"
	case Ended:
		return "ended"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) live() bool {
	return s == Connecting || s == Active
}

// Status is a snapshot of a Channel.
type Status struct {
	ExtensionID string
	SessionID   string
	State       State
	Err         error
}

// Channel owns the stream of the extension currently open. The zero value is
// not usable; build one with New.
type Channel struct {
	client rpc.ExtensionHostClient
	host   *render.Host

	logger       *slog.Logger
	reporter     diag.Reporter
	onClosed     func(string)
	onState      func(Status)
	actionBuffer int

	// pushMu orders mounts against teardown so a superseded stream cannot
	// mount after its surfaces were cleared.
	pushMu sync.Mutex

	mu           sync.Mutex
	gen          uint64
	extensionID  string
	sessionID    string
	state        State
	err          error
	cancel       context.CancelFunc
	cancelStream context.CancelFunc
}

// New builds a channel that talks to client and mounts forms on host.
func New(client rpc.ExtensionHostClient, host *render.Host, opts ...Option) *Channel {
	c := &Channel{
		client:       client,
		host:         host,
		logger:       slog.Default(),
		reporter:     diag.Discard,
		actionBuffer: defaultActionBuffer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.host == nil {
		c.host = render.NewHost(render.WithLogger(c.logger))
	}
	return c
}

// Host returns the host forms are mounted on.
func (c *Channel) Host() *render.Host {
	return c.host
}

// Status returns the current session snapshot.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

func (c *Channel) status() Status {
	return Status{ExtensionID: c.extensionID, SessionID: c.sessionID, State: c.state, Err: c.err}
}

// ExtensionID returns the id of the open extension, or "".
func (c *Channel) ExtensionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.extensionID
}

// Open connects to extensionID. A live or in-flight session for the same id
// is reused; a session for any other id is torn down first. The stream lives
// until ctx ends, Stop or Release is called, or the core ends it.
func (c *Channel) Open(ctx context.Context, extensionID string) error {
	if extensionID == "" {
		return ErrEmptyExtensionID
	}

	c.pushMu.Lock()
	c.mu.Lock()
	if c.extensionID == extensionID && c.state.live() {
		c.mu.Unlock()
		c.pushMu.Unlock()
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	sessCtx, cancel := context.WithCancel(ctx)
	streamCtx, cancelStream := context.WithCancel(sessCtx)
	c.cancel = cancel
	c.cancelStream = cancelStream
	c.extensionID = extensionID
	c.sessionID = uuid.NewString()
	c.state = Connecting
	c.err = nil
	st := c.status()
	c.mu.Unlock()

	c.host.ClearAll()
	c.pushMu.Unlock()

	c.logger.Info("session: open", "extension", extensionID, "session", st.SessionID)
	c.notify(st)

	actions := make(chan render.Action, c.actionBuffer)
	go c.dispatchLoop(sessCtx, gen, actions)

	stream, err := c.client.Connect(streamCtx, &rpc.ExtensionRequest{ExtensionID: extensionID})
	if err != nil {
		cancel()
		c.finish(gen, err)
		return fmt.Errorf("session: open %s: %w", extensionID, err)
	}

	c.mu.Lock()
	if c.gen != gen || c.state != Connecting {
		c.mu.Unlock()
		return nil
	}
	c.state = Active
	st = c.status()
	c.mu.Unlock()
	c.notify(st)

	go c.pump(gen, extensionID, actions, stream)
	return nil
}

func (c *Channel) pump(gen uint64, extensionID string, actions chan render.Action, stream rpc.Stream[rpc.ExtensionResponse]) {
	err := rpc.Observe(stream, rpc.Observer[rpc.ExtensionResponse]{
		OnMessage: func(msg *rpc.ExtensionResponse) {
			c.apply(gen, extensionID, actions, msg)
		},
	})
	c.finish(gen, err)
}

func (c *Channel) apply(gen uint64, extensionID string, actions chan render.Action, msg *rpc.ExtensionResponse) {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	c.mu.Lock()
	current := c.gen == gen && c.state.live() && c.extensionID == extensionID
	c.mu.Unlock()
	if !current || msg.ExtensionID != extensionID {
		c.logger.Debug("session: dropped stale push", "extension", msg.ExtensionID, "type", string(msg.Type))
		return
	}

	if msg.Type == rpc.ExtensionEnd {
		c.end(gen)
		return
	}

	doc, err := schema.DecodeString(msg.JSONUI)
	if err != nil {
		c.reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Source:   "schema",
			Message:  fmt.Sprintf("extension %s sent an unreadable form", extensionID),
			Err:      err,
		})
		return
	}

	surface := render.Inline
	if msg.Type == rpc.ExtensionShowDialog {
		surface = render.Dialog
	}
	c.host.Mount(doc, surface, c.enqueue(gen, actions))
}

func (c *Channel) enqueue(gen uint64, actions chan render.Action) render.ActionFunc {
	return func(a render.Action) {
		if !c.current(gen) {
			return
		}
		select {
		case actions <- a:
		default:
			c.reporter.Report(diag.Diagnostic{
				Severity: diag.Warning,
				Source:   source,
				Message:  fmt.Sprintf("action %s dropped, too many pending", a.Key),
			})
		}
	}
}

func (c *Channel) dispatchLoop(ctx context.Context, gen uint64, actions <-chan render.Action) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-actions:
			if !c.current(gen) {
				continue
			}
			if err := c.DispatchAction(ctx, a); err != nil {
				c.logger.Debug("session: dispatch failed", "key", a.Key, "error", err)
			}
		}
	}
}

func (c *Channel) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen && c.extensionID != ""
}

// end marks the session Ended after an END push.
func (c *Channel) end(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || !c.state.live() {
		c.mu.Unlock()
		return
	}
	c.state = Ended
	if c.cancelStream != nil {
		c.cancelStream()
	}
	st := c.status()
	c.mu.Unlock()

	c.logger.Info("session: ended by core", "extension", st.ExtensionID)
	c.reporter.Report(diag.Diagnostic{Severity: diag.Info, Source: source, Message: fmt.Sprintf("extension %s ended the session", st.ExtensionID)})
	c.notify(st)
}

func (c *Channel) finish(gen uint64, err error) {
	c.mu.Lock()
	if c.gen != gen || !c.state.live() {
		c.mu.Unlock()
		return
	}
	if err == nil || rpc.IsCanceled(err) {
		c.state = Ended
	} else {
		c.state = Failed
		c.err = err
	}
	st := c.status()
	c.mu.Unlock()

	if st.State == Failed {
		c.logger.Warn("session: stream failed", "extension", st.ExtensionID, "error", err)
		c.reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Source:   source,
			Message:  fmt.Sprintf("connection to extension %s failed", st.ExtensionID),
			Err:      err,
		})
	} else {
		c.logger.Info("session: stream closed", "extension", st.ExtensionID)
	}
	c.notify(st)
}

// DispatchAction sends a form action for the open extension. Submit and
// Close become SubmitForm, Cancel becomes Cancel and Stop runs Stop. Failures
// are reported as diagnostics and returned.
func (c *Channel) DispatchAction(ctx context.Context, a render.Action) error {
	extensionID := c.ExtensionID()
	if extensionID == "" {
		return ErrNoSession
	}

	var err error
	switch a.Kind {
	case render.ActionSubmit, render.ActionClose:
		_, err = c.client.SubmitForm(ctx, &rpc.SendExtensionDataRequest{
			ExtensionID: extensionID,
			Button:      a.Key,
			Data:        a.Data,
		})
	case render.ActionCancel:
		_, err = c.client.Cancel(ctx, &rpc.ExtensionRequest{ExtensionID: extensionID})
	case render.ActionStop:
		return c.Stop(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	if err != nil {
		c.reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Source:   source,
			Message:  fmt.Sprintf("%s on %s failed", a.Key, extensionID),
			Err:      err,
		})
		return fmt.Errorf("session: %s %s: %w", a.Kind, a.Key, err)
	}
	return nil
}

// Stop sends the close call for the open extension, tears the session down
// locally and then runs the OnClosed hook. When the call fails the session
// stays as it is.
func (c *Channel) Stop(ctx context.Context) error {
	extensionID := c.ExtensionID()
	if extensionID == "" {
		return ErrNoSession
	}

	if _, err := c.client.Close(ctx, &rpc.ExtensionRequest{ExtensionID: extensionID}); err != nil {
		c.reporter.Report(diag.Diagnostic{
			Severity: diag.Error,
			Source:   source,
			Message:  fmt.Sprintf("could not stop extension %s", extensionID),
			Err:      err,
		})
		return fmt.Errorf("session: stop %s: %w", extensionID, err)
	}

	if !c.teardown(extensionID) {
		return nil
	}
	if c.onClosed != nil {
		c.onClosed(extensionID)
	}
	return nil
}

// Release drops the session locally without calling the core.
func (c *Channel) Release() {
	c.teardown("")
}

// teardown clears the session when it still belongs to extensionID, or
// unconditionally for "".
func (c *Channel) teardown(extensionID string) bool {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	c.mu.Lock()
	if c.extensionID == "" || (extensionID != "" && c.extensionID != extensionID) {
		c.mu.Unlock()
		return false
	}
	released := c.extensionID
	c.gen++
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = nil
	c.cancelStream = nil
	c.extensionID = ""
	c.sessionID = ""
	c.state = Idle
	c.err = nil
	st := c.status()
	c.mu.Unlock()

	c.host.ClearAll()
	c.logger.Info("session: released", "extension", released)
	c.notify(st)
	return true
}

func (c *Channel) notify(st Status) {
	if c.onState != nil {
		c.onState(st)
	}
}
