package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/goliatone/go-corepanel/internal/bufnet"
	"github.com/goliatone/go-corepanel/pkg/devcore"
	"github.com/goliatone/go-corepanel/pkg/panel"
	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/rpc"
)

func setup(t *testing.T) (*devcore.Server, *panel.Panel, Model) {
	t.Helper()
	srv := devcore.New(devcore.WithExtensions(devcore.Samples()...))
	client := bufnet.Serve(t, func(r grpc.ServiceRegistrar) { srv.RegisterServices(r) })

	ctx, cancel := context.WithCancel(context.Background())
	p := panel.New(client.Extensions, client.Core, panel.WithEventBuffer(256))
	t.Cleanup(func() {
		p.Close()
		cancel()
	})
	return srv, p, New(ctx, p, Options{Width: 80})
}

// drain feeds every pending bus event to the model.
func drain(m Model, p *panel.Panel) Model {
	for {
		select {
		case ev := <-p.Events():
			m = m.applyEvent(ev)
		default:
			return m
		}
	}
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())
	return m
}

func loadList(t *testing.T, m Model, p *panel.Panel) Model {
	t.Helper()
	_, err := p.ShowExtensionList(context.Background())
	require.NoError(t, err)
	return drain(m, p)
}

func TestListViewAndNavigation(t *testing.T) {
	_, p, m := setup(t)
	m = loadList(t, m, p)
	require.Len(t, m.rows, 3)

	view := m.View()
	assert.Contains(t, view, "Hello")
	assert.Contains(t, view, "Sandbox")
	assert.Contains(t, view, "[off]")

	m, _ = send(t, m, key(tea.KeyDown))
	m, _ = send(t, m, key(tea.KeyDown))
	m, _ = send(t, m, key(tea.KeyDown))
	assert.Equal(t, 2, m.cursor)
	m, _ = send(t, m, key(tea.KeyUp))
	assert.Equal(t, 1, m.cursor)
}

func TestOpenDisabledShowsAlert(t *testing.T) {
	srv, p, m := setup(t)
	m = loadList(t, m, p)
	m.cursor = 2

	m, cmd := send(t, m, key(tea.KeyEnter))
	m = run(t, m, cmd)
	m = drain(m, p)

	require.NotNil(t, m.alert)
	assert.Contains(t, m.View(), "Attention")
	assert.Empty(t, srv.CallsTo(rpc.ExtensionConnectMethod))

	m, _ = send(t, m, key(tea.KeyEnter))
	assert.Nil(t, m.alert)
}

func TestSessionTypingAndSubmit(t *testing.T) {
	srv, p, m := setup(t)
	m = loadList(t, m, p)

	m, cmd := send(t, m, key(tea.KeyEnter))
	m = run(t, m, cmd)
	require.Eventually(t, func() bool { return p.Host().Current(render.Inline) != nil }, 5*time.Second, 10*time.Millisecond)
	m = drain(m, p)
	assert.Equal(t, panel.ExtensionSession, m.mode)

	m, _ = send(t, m, runes("Ad"))
	m, _ = send(t, m, runes("x"))
	m, _ = send(t, m, key(tea.KeyBackspace))
	m, _ = send(t, m, runes("a"))
	assert.Contains(t, m.View(), "[Ada]")

	// name, Cancel, Submit, Back
	m, _ = send(t, m, key(tea.KeyTab))
	m, _ = send(t, m, key(tea.KeyTab))
	m, _ = send(t, m, key(tea.KeyEnter))

	require.Eventually(t, func() bool {
		return len(srv.CallsTo(rpc.ExtensionSubmitFormMethod)) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, map[string]string{"name": "Ada"}, srv.CallsTo(rpc.ExtensionSubmitFormMethod)[0].Data)

	require.Eventually(t, func() bool { return p.Host().Current(render.Dialog) != nil }, 5*time.Second, 10*time.Millisecond)
	m = drain(m, p)
	assert.True(t, strings.Contains(m.View(), "Hello, Ada!"))

	m, _ = send(t, m, key(tea.KeyEsc))
	assert.Nil(t, p.Host().Current(render.Dialog))
}

func TestIndicatorBadge(t *testing.T) {
	_, p, m := setup(t)
	m.panel.ShowConnectionPanel(m.ctx)
	m = drain(m, p)
	assert.Equal(t, panel.ConnectionPanel, m.mode)

	_, err := p.Monitor().Start(context.Background(), "{}")
	require.NoError(t, err)
	m = drain(m, p)
	assert.Contains(t, m.View(), "Connected")
}
