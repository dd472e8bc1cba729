package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/goliatone/go-corepanel/internal/bufnet"
	"github.com/goliatone/go-corepanel/pkg/devcore"
	"github.com/goliatone/go-corepanel/pkg/diag"
	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/rpc"
	"github.com/goliatone/go-corepanel/pkg/schema"
	"github.com/goliatone/go-corepanel/pkg/session"
)

const (
	wait = 5 * time.Second
	tick = 10 * time.Millisecond
)

const nameForm = `{"id":1,"fields":[[{"key":"name","type":"Text","required":true}]],"buttons":["Submit"]}`

type nameExtension struct{}

func (nameExtension) Open() schema.Document {
	doc, err := schema.DecodeString(nameForm)
	if err != nil {
		panic(err)
	}
	return doc
}
func (nameExtension) Submit(devcore.UI, string, map[string]string) error { return nil }
func (nameExtension) Cancel(devcore.UI) error                            { return nil }
func (nameExtension) Close()                                             {}

func factory(id string, enabled bool) devcore.Factory {
	return devcore.Factory{ID: id, Title: id, Enabled: enabled, New: func() devcore.Extension { return nameExtension{} }}
}

type fixture struct {
	srv      *devcore.Server
	channel  *session.Channel
	host     *render.Host
	reports  *diag.Recorder
	closedMu sync.Mutex
	closed   []string

	changesMu sync.Mutex
	changes   []render.Change
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{reports: &diag.Recorder{}}
	f.srv = devcore.New(devcore.WithExtensions(factory("e1", true), factory("e2", true), factory("off", false)))
	client := bufnet.Serve(t, func(r grpc.ServiceRegistrar) { f.srv.RegisterServices(r) })

	f.host = render.NewHost(render.WithChangeHook(func(c render.Change) {
		f.changesMu.Lock()
		f.changes = append(f.changes, c)
		f.changesMu.Unlock()
	}))
	f.channel = session.New(client.Extensions, f.host,
		session.WithReporter(f.reports),
		session.WithOnClosed(func(id string) {
			f.closedMu.Lock()
			f.closed = append(f.closed, id)
			f.closedMu.Unlock()
		}),
	)
	t.Cleanup(f.channel.Release)
	return f
}

func (f *fixture) mounts() int {
	f.changesMu.Lock()
	defer f.changesMu.Unlock()
	n := 0
	for _, c := range f.changes {
		if c.Kind == render.ChangeMounted {
			n++
		}
	}
	return n
}

func (f *fixture) waitForm(t *testing.T, surface render.Surface) *render.Form {
	t.Helper()
	var form *render.Form
	require.Eventually(t, func() bool {
		form = f.host.Current(surface)
		return form != nil
	}, wait, tick)
	return form
}

func (f *fixture) waitState(t *testing.T, state session.State) {
	t.Helper()
	require.Eventually(t, func() bool { return f.channel.Status().State == state }, wait, tick)
}

func TestOpenMountsPushedFormAndSubmitsOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "e1"))

	form := f.waitForm(t, render.Inline)
	assert.Equal(t, schema.DocumentID("1"), form.ID())
	assert.Equal(t, session.Active, f.channel.Status().State)
	assert.NotEmpty(t, f.channel.Status().SessionID)

	require.NoError(t, form.SetValue("name", "Ada"))
	require.NoError(t, form.Press("Submit"))

	require.Eventually(t, func() bool {
		return len(f.srv.CallsTo(rpc.ExtensionSubmitFormMethod)) == 1
	}, wait, tick)
	calls := f.srv.CallsTo(rpc.ExtensionSubmitFormMethod)
	assert.Equal(t, "e1", calls[0].ExtensionID)
	assert.Equal(t, "Submit", calls[0].Button)
	assert.Equal(t, map[string]string{"name": "Ada"}, calls[0].Data)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.srv.CallsTo(rpc.ExtensionSubmitFormMethod), 1)
}

func TestOpenSameExtensionCoalesces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.channel.Open(ctx, "e1"))
		}()
	}
	wg.Wait()
	f.waitForm(t, render.Inline)

	assert.Len(t, f.srv.CallsTo(rpc.ExtensionConnectMethod), 1)
}

func TestStalePushIsDropped(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "e1"))
	inline := f.waitForm(t, render.Inline)
	before := f.mounts()

	stale := schema.Message("stale", "from another extension")
	payload, err := stale.JSON()
	require.NoError(t, err)
	require.NoError(t, f.srv.Push("e1", rpc.ExtensionResponse{ExtensionID: "e2", Type: rpc.ExtensionShowDialog, JSONUI: payload}))

	fresh := schema.Message("fresh", "ok")
	payload, err = fresh.JSON()
	require.NoError(t, err)
	require.NoError(t, f.srv.Push("e1", rpc.ExtensionResponse{ExtensionID: "e1", Type: rpc.ExtensionShowDialog, JSONUI: payload}))

	dialog := f.waitForm(t, render.Dialog)
	assert.Equal(t, "fresh", dialog.Title())
	assert.Equal(t, before+1, f.mounts())
	assert.Same(t, inline, f.host.Current(render.Inline))
}

func TestDialogDismissSendsCloseDialog(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "e1"))
	f.waitForm(t, render.Inline)

	msg := schema.Message("Done", "saved")
	payload, err := msg.JSON()
	require.NoError(t, err)
	require.NoError(t, f.srv.Push("e1", rpc.ExtensionResponse{ExtensionID: "e1", Type: rpc.ExtensionShowDialog, JSONUI: payload}))

	dialog := f.waitForm(t, render.Dialog)
	require.NoError(t, dialog.Dismiss())
	assert.Nil(t, f.host.Current(render.Dialog))

	require.Eventually(t, func() bool {
		return len(f.srv.CallsTo(rpc.ExtensionSubmitFormMethod)) == 1
	}, wait, tick)
	assert.Equal(t, schema.ButtonDialogClose, f.srv.CallsTo(rpc.ExtensionSubmitFormMethod)[0].Button)
}

func TestUnreadablePushKeepsPreviousForm(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "e1"))
	inline := f.waitForm(t, render.Inline)

	require.NoError(t, f.srv.Push("e1", rpc.ExtensionResponse{ExtensionID: "e1", Type: rpc.ExtensionUpdateUI, JSONUI: "{nope"}))
	require.Eventually(t, func() bool { return f.reports.Count(diag.Error) == 1 }, wait, tick)

	assert.Same(t, inline, f.host.Current(render.Inline))
	assert.Equal(t, "schema", f.reports.All()[0].Source)
	assert.Equal(t, session.Active, f.channel.Status().State)
}

func TestEndPushEndsSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "e1"))
	f.waitForm(t, render.Inline)

	require.NoError(t, f.srv.Push("e1", rpc.ExtensionResponse{ExtensionID: "e1", Type: rpc.ExtensionEnd}))
	f.waitState(t, session.Ended)
	assert.Equal(t, "e1", f.channel.ExtensionID())

	require.NoError(t, f.channel.Open(context.Background(), "e1"))
	require.Eventually(t, func() bool {
		return len(f.srv.CallsTo(rpc.ExtensionConnectMethod)) == 2
	}, wait, tick)
}

func TestStreamErrorLeavesSessionFailed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "off"))

	f.waitState(t, session.Failed)
	st := f.channel.Status()
	require.Error(t, st.Err)
	assert.Equal(t, 1, f.reports.Count(diag.Error))

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.srv.CallsTo(rpc.ExtensionConnectMethod), 1)
}

func TestOpenOtherExtensionReplacesStream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.channel.Open(ctx, "e1"))
	first := f.waitForm(t, render.Inline)

	require.NoError(t, f.channel.Open(ctx, "e2"))
	require.Eventually(t, func() bool {
		form := f.host.Current(render.Inline)
		return form != nil && form != first
	}, wait, tick)
	assert.True(t, first.Detached())
	assert.Equal(t, "e2", f.channel.ExtensionID())

	// e1 pushes after the switch never reach the host.
	before := f.mounts()
	msg := schema.Message("late", "e1")
	payload, err := msg.JSON()
	require.NoError(t, err)
	_ = f.srv.Push("e1", rpc.ExtensionResponse{ExtensionID: "e1", Type: rpc.ExtensionShowDialog, JSONUI: payload})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, f.mounts())
}

func TestStopClosesAndNotifies(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "e1"))
	form := f.waitForm(t, render.Inline)

	require.NoError(t, form.Press(schema.ButtonStop))

	require.Eventually(t, func() bool {
		f.closedMu.Lock()
		defer f.closedMu.Unlock()
		return len(f.closed) == 1
	}, wait, tick)
	assert.Len(t, f.srv.CallsTo(rpc.ExtensionCloseMethod), 1)
	assert.Equal(t, 0, f.host.Live())
	assert.Equal(t, session.Idle, f.channel.Status().State)
	assert.Equal(t, "", f.channel.ExtensionID())
}

func TestStopFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "e1"))
	f.waitForm(t, render.Inline)

	f.srv.FailNext(rpc.ExtensionCloseMethod, errors.New("core busy"))
	err := f.channel.Stop(context.Background())
	require.Error(t, err)

	assert.Equal(t, "e1", f.channel.ExtensionID())
	assert.Equal(t, 1, f.host.Live())
	assert.Equal(t, 1, f.reports.Count(diag.Error))
	f.closedMu.Lock()
	assert.Empty(t, f.closed)
	f.closedMu.Unlock()
}

func TestReleaseSkipsCore(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "e1"))
	f.waitForm(t, render.Inline)

	f.channel.Release()
	assert.Equal(t, session.Idle, f.channel.Status().State)
	assert.Equal(t, 0, f.host.Live())
	assert.Empty(t, f.srv.CallsTo(rpc.ExtensionCloseMethod))
}

func TestDispatchWithoutSession(t *testing.T) {
	f := newFixture(t)
	err := f.channel.DispatchAction(context.Background(), render.Action{Kind: render.ActionSubmit, Key: "Submit"})
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.ErrorIs(t, f.channel.Stop(context.Background()), session.ErrNoSession)
	assert.ErrorIs(t, f.channel.Open(context.Background(), ""), session.ErrEmptyExtensionID)
}

func TestDispatchCancel(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.channel.Open(context.Background(), "e1"))
	f.waitForm(t, render.Inline)

	require.NoError(t, f.channel.DispatchAction(context.Background(), render.Action{Kind: render.ActionCancel, Key: schema.ButtonCancel}))
	assert.Len(t, f.srv.CallsTo(rpc.ExtensionCancelMethod), 1)
}

// refusingHost fails every Connect and keeps the context it was given.
type refusingHost struct {
	rpc.ExtensionHostClient
	ctxs chan context.Context
}

func (h *refusingHost) Connect(ctx context.Context, _ *rpc.ExtensionRequest, _ ...grpc.CallOption) (rpc.Stream[rpc.ExtensionResponse], error) {
	h.ctxs <- ctx
	return nil, errors.New("connection refused")
}

func TestConnectFailureCancelsSession(t *testing.T) {
	client := &refusingHost{ctxs: make(chan context.Context, 1)}
	reports := &diag.Recorder{}
	channel := session.New(client, render.NewHost(), session.WithReporter(reports))
	t.Cleanup(channel.Release)

	err := channel.Open(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, session.Failed, channel.Status().State)
	assert.Equal(t, 1, reports.Count(diag.Error))

	ctx := <-client.ctxs
	select {
	case <-ctx.Done():
	case <-time.After(wait):
		t.Fatal("session context still alive after failed connect")
	}
}
