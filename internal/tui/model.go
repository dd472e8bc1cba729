// Package tui is the bubbletea front end over a panel.Panel.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-corepanel/pkg/diag"
	"github.com/goliatone/go-corepanel/pkg/monitor"
	"github.com/goliatone/go-corepanel/pkg/panel"
	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/renderers/text"
)

// Options carries what the connection panel sends on connect.
type Options struct {
	Config   string
	Settings string
	Width    int
}

type eventMsg panel.Event

type resultMsg struct {
	op  string
	err error
}

// Model is the bubbletea model. All panel notifications arrive as eventMsg
// values read from the panel bus.
type Model struct {
	ctx      context.Context
	panel    *panel.Panel
	renderer *text.Renderer
	th       text.Theme
	opts     Options

	width  int
	height int

	mode      panel.Mode
	rows      []panel.Extension
	cursor    int
	focus     int
	choice    int
	indicator monitor.Indicator
	alert     *diag.Diagnostic
	status    string
}

// New builds the model. ctx bounds every call the model issues.
func New(ctx context.Context, p *panel.Panel, opts Options) Model {
	r := text.New(text.WithWidth(opts.Width))
	return Model{
		ctx:       ctx,
		panel:     p,
		renderer:  r,
		th:        r.Theme(),
		opts:      opts,
		mode:      p.Mode(),
		indicator: monitor.IndicatorFor(p.Monitor().State()),
	}
}

// Run starts the program on the alternate screen.
func Run(ctx context.Context, p *panel.Panel, opts Options) error {
	prog := tea.NewProgram(New(ctx, p, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.call("list", func(ctx context.Context) error {
		_, err := m.panel.ShowExtensionList(ctx)
		return err
	}))
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.panel.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m Model) call(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch t := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = t.Width
		m.height = t.Height
		return m, nil
	case eventMsg:
		m = m.applyEvent(panel.Event(t))
		return m, m.waitForEvent()
	case resultMsg:
		if t.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", t.op, t.err)
		} else if t.op != "" {
			m.status = t.op + " ok"
		}
		return m, nil
	case tea.KeyMsg:
		if t.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.alert != nil {
			switch t.Type {
			case tea.KeyEnter, tea.KeyEsc:
				m.alert = nil
			}
			return m, nil
		}
		switch t.String() {
		case "f1":
			return m, m.call("list", func(ctx context.Context) error {
				_, err := m.panel.ShowExtensionList(ctx)
				return err
			})
		case "f2":
			m.panel.ShowConnectionPanel(m.ctx)
			return m, nil
		}
		switch m.mode {
		case panel.ExtensionList:
			return m.updateList(t)
		case panel.ExtensionSession:
			return m.updateSession(t)
		case panel.ConnectionPanel:
			return m.updateConnection(t)
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) applyEvent(ev panel.Event) Model {
	switch ev.Kind {
	case panel.EventMode:
		m.mode = ev.Mode
		m.focus, m.choice = 0, 0
	case panel.EventExtensions:
		m.rows = ev.Extensions
		if m.cursor >= len(m.rows) {
			m.cursor = max(0, len(m.rows)-1)
		}
	case panel.EventForm:
		if ev.Change.Kind == render.ChangeMounted {
			m.focus, m.choice = 0, 0
		}
	case panel.EventIndicator:
		m.indicator = ev.Update.Indicator
	case panel.EventDiagnostic:
		d := ev.Diagnostic
		if d.Severity == diag.Blocking {
			m.alert = &d
		} else {
			m.status = d.String()
		}
	case panel.EventSession:
		if ev.Session.ExtensionID != "" {
			m.status = fmt.Sprintf("session %s: %s", ev.Session.ExtensionID, ev.Session.State)
		}
	}
	return m
}

func (m Model) updateList(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "r":
		return m, m.call("list", func(ctx context.Context) error {
			_, err := m.panel.ShowExtensionList(ctx)
			return err
		})
	case " ", "e":
		if row, ok := m.selected(); ok {
			return m, m.call("toggle "+row.ID, func(ctx context.Context) error {
				return m.panel.SetEnabled(ctx, row.ID, !row.Enabled)
			})
		}
	case "enter":
		if row, ok := m.selected(); ok {
			// OpenExtension reports disabled rows itself.
			return m, m.call("", func(ctx context.Context) error {
				return m.panel.OpenExtension(ctx, row.ID)
			})
		}
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) selected() (panel.Extension, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return panel.Extension{}, false
	}
	return m.rows[m.cursor], true
}

// activeForm returns the dialog when one is shown, otherwise the inline form.
func (m Model) activeForm() *render.Form {
	host := m.panel.Host()
	if f := host.Current(render.Dialog); f != nil {
		return f
	}
	return host.Current(render.Inline)
}

func (m Model) updateSession(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.activeForm()
	if form == nil {
		if k.Type == tea.KeyEsc {
			return m, m.call("stop", m.panel.Session().Stop)
		}
		return m, nil
	}
	widgets := text.Focusables(form)
	if len(widgets) == 0 {
		if k.Type == tea.KeyEsc && form.Surface() == render.Dialog {
			m.report(form.Dismiss())
		}
		return m, nil
	}
	if m.focus >= len(widgets) {
		m.focus = len(widgets) - 1
	}
	w := widgets[m.focus]

	switch k.Type {
	case tea.KeyTab, tea.KeyDown:
		m.focus = (m.focus + 1) % len(widgets)
		m.choice = 0
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.focus = (m.focus - 1 + len(widgets)) % len(widgets)
		m.choice = 0
		return m, nil
	case tea.KeyEsc:
		if form.Surface() == render.Dialog {
			m.report(form.Dismiss())
		} else if _, ok := form.Back(); ok {
			m.report(form.PressBack())
		}
		return m, nil
	}

	switch w.Kind {
	case render.WidgetButton:
		if k.Type == tea.KeyEnter || k.Type == tea.KeySpace {
			m.report(form.PressWidget(w))
		}
	case render.WidgetInput, render.WidgetTextArea:
		switch k.Type {
		case tea.KeyRunes, tea.KeySpace:
			m.report(form.SetValue(w.Key, w.Value+string(k.Runes)))
		case tea.KeyBackspace:
			if r := []rune(w.Value); len(r) > 0 {
				m.report(form.SetValue(w.Key, string(r[:len(r)-1])))
			}
		case tea.KeyEnter:
			if w.Kind == render.WidgetTextArea {
				m.report(form.SetValue(w.Key, w.Value+"\n"))
			}
		}
	case render.WidgetSwitch:
		if k.Type == tea.KeySpace || k.Type == tea.KeyEnter {
			m.report(form.Toggle(w.Key, ""))
		}
	case render.WidgetCheckboxGroup, render.WidgetRadioGroup, render.WidgetSelect:
		switch k.Type {
		case tea.KeyLeft:
			if m.choice > 0 {
				m.choice--
			}
		case tea.KeyRight:
			if m.choice < len(w.Choices)-1 {
				m.choice++
			}
		case tea.KeySpace, tea.KeyEnter:
			if m.choice < len(w.Choices) {
				m.report(form.Toggle(w.Key, w.Choices[m.choice].Value))
			}
		}
	}
	return m, nil
}

func (m *Model) report(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

func (m Model) updateConnection(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "c", "enter":
		req := monitor.Request{Settings: m.opts.Settings, Config: m.opts.Config}
		return m, m.call("connect", func(ctx context.Context) error {
			_, err := m.panel.Monitor().Connect(ctx, req)
			return err
		})
	case "x":
		return m, m.call("disconnect", func(ctx context.Context) error {
			_, err := m.panel.Monitor().Stop(ctx)
			return err
		})
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var body string
	switch m.mode {
	case panel.ExtensionList:
		body = m.viewList()
	case panel.ExtensionSession:
		body = m.viewSession()
	case panel.ConnectionPanel:
		body = m.viewConnection()
	}

	sections := []string{m.viewHeader(), body, m.viewFooter()}
	if m.alert != nil {
		modal := m.th.Frame.BorderForeground(lipgloss.Color("#FF0055")).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				m.th.Danger.Render("Attention"),
				m.alert.Message,
				m.th.Muted.Render("enter to dismiss"),
			),
		)
		sections = append(sections, modal)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewHeader() string {
	tabs := []struct {
		mode  panel.Mode
		label string
	}{
		{panel.ExtensionList, "F1 Extensions"},
		{panel.ConnectionPanel, "F2 Connection"},
	}
	var parts []string
	for _, tab := range tabs {
		style := m.th.Muted
		if m.mode == tab.mode {
			style = m.th.Header
		}
		parts = append(parts, style.Render(tab.label))
	}
	if m.mode == panel.ExtensionSession {
		parts = append(parts, m.th.Header.Render(m.panel.Session().ExtensionID()))
	}
	if badge := m.viewIndicator(); badge != "" {
		parts = append(parts, badge)
	}
	return strings.Join(parts, "  ")
}

func (m Model) viewIndicator() string {
	if !m.indicator.Visible {
		return ""
	}
	style := m.th.Muted
	switch m.indicator.Color {
	case monitor.Green:
		style = m.th.Success
	case monitor.Amber:
		style = m.th.Alert
	case monitor.Red:
		style = m.th.Danger
	}
	return style.Render("● " + m.indicator.Text)
}

func (m Model) viewList() string {
	if len(m.rows) == 0 {
		return m.th.Muted.Render("no extensions")
	}
	lines := make([]string, 0, len(m.rows))
	for i, row := range m.rows {
		cursor := "  "
		if i == m.cursor {
			cursor = m.th.Focus.Render("›") + " "
		}
		state := m.th.Success.Render("[on] ")
		if !row.Enabled {
			state = m.th.Muted.Render("[off]")
		}
		line := cursor + state + " " + m.th.Header.Render(row.Title)
		if row.Description != "" {
			line += "  " + m.th.Muted.Render(row.Description)
		}
		lines = append(lines, line)
	}
	return m.th.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) viewSession() string {
	host := m.panel.Host()
	var blocks []string
	inlineFocus, dialogFocus := m.focus, text.NoFocus
	dialog := host.Current(render.Dialog)
	if dialog != nil {
		inlineFocus, dialogFocus = text.NoFocus, m.focus
	}
	if inline := host.Current(render.Inline); inline != nil {
		blocks = append(blocks, m.renderer.View(inline, inlineFocus))
	} else {
		blocks = append(blocks, m.th.Muted.Render("waiting for the extension…"))
	}
	if dialog != nil {
		blocks = append(blocks, m.renderer.View(dialog, dialogFocus))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func (m Model) viewConnection() string {
	state := string(m.panel.Monitor().State())
	lines := []string{
		m.th.Header.Render("Core"),
		"state: " + state,
	}
	if m.opts.Config == "" {
		lines = append(lines, m.th.Alert.Render("no configuration loaded"))
	}
	return m.th.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) viewFooter() string {
	var help string
	switch m.mode {
	case panel.ExtensionList:
		help = "↑/↓ move • enter open • space toggle • r refresh • q quit"
	case panel.ExtensionSession:
		help = "tab move • space/enter act • ←/→ choose • esc back"
	case panel.ConnectionPanel:
		help = "c connect • x disconnect • q quit"
	}
	lines := []string{m.th.Muted.Render(help)}
	if m.status != "" {
		lines = append([]string{m.th.Muted.Render(m.status)}, lines...)
	}
	return strings.Join(lines, "\n")
}
