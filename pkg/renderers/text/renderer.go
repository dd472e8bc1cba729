package text

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-corepanel/pkg/render"
)

// NoFocus renders a form without a cursor.
const NoFocus = -1

// Option configures the text renderer.
type Option func(*Renderer)

// WithTheme overrides the default palette.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithWidth caps the width of rendered rows. Zero disables wrapping.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width >= 0 {
			r.width = width
		}
	}
}

// Renderer draws forms as styled terminal text.
type Renderer struct {
	theme  Theme
	width  int
	strict *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the text renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{
		theme:  DefaultTheme(),
		strict: bluemonday.StrictPolicy(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string {
	return "text"
}

func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

func (r *Renderer) Render(_ context.Context, form *render.Form) ([]byte, error) {
	if form == nil {
		return nil, errors.New("text renderer: form is nil")
	}
	return []byte(r.View(form, NoFocus)), nil
}

// Theme returns the palette in use.
func (r *Renderer) Theme() Theme {
	return r.theme
}

// View renders form with the cursor on the focus-th focusable widget, in the
// order returned by Focusables.
func (r *Renderer) View(form *render.Form, focus int) string {
	var blocks []string

	if title := strings.TrimSpace(form.Title()); title != "" {
		blocks = append(blocks, r.theme.Header.Render(title))
	}
	if desc := strings.TrimSpace(r.strict.Sanitize(form.Description())); desc != "" {
		blocks = append(blocks, r.theme.Muted.Render(desc))
	}

	index := 0
	for _, row := range form.Rows() {
		cells := make([]string, 0, len(row.Widgets))
		for _, w := range row.Widgets {
			focused := false
			if w.Focusable() {
				focused = index == focus
				index++
			}
			cells = append(cells, r.widget(w, focused))
		}
		if len(cells) == 0 {
			continue
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, spaced(cells)...)
		if r.width > 0 {
			line = lipgloss.NewStyle().MaxWidth(r.width).Render(line)
		}
		blocks = append(blocks, line)
	}

	var buttons []string
	for _, w := range form.Buttons() {
		buttons = append(buttons, r.widget(w, index == focus))
		index++
	}
	if back, ok := form.Back(); ok {
		buttons = append(buttons, r.widget(back, index == focus))
	}
	if len(buttons) > 0 {
		blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, spaced(buttons)...))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, blocks...)
	if form.Surface() == render.Dialog {
		return r.theme.Frame.Render(body)
	}
	return body
}

// Focusables returns the widgets a cursor can visit, in the order View counts
// them.
func Focusables(form *render.Form) []render.Widget {
	var out []render.Widget
	for _, row := range form.Rows() {
		for _, w := range row.Widgets {
			if w.Focusable() {
				out = append(out, w)
			}
		}
	}
	out = append(out, form.Buttons()...)
	if back, ok := form.Back(); ok {
		out = append(out, back)
	}
	return out
}

func spaced(cells []string) []string {
	out := make([]string, 0, len(cells)*2)
	for i, c := range cells {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, c)
	}
	return out
}

func (r *Renderer) widget(w render.Widget, focused bool) string {
	cursor := "  "
	if focused {
		cursor = r.theme.Focus.Render("›") + " "
	}

	label := ""
	if w.Label != "" && !w.LabelHidden {
		label = w.Label + ": "
		if w.Required {
			label = w.Label + "*: "
		}
	}

	var body string
	switch w.Kind {
	case render.WidgetInput:
		value := w.Value
		if w.InputKind == "password" {
			value = strings.Repeat("*", len([]rune(value)))
		}
		if value == "" && w.Placeholder != "" {
			value = r.theme.Muted.Render(w.Placeholder)
		}
		body = label + "[" + value + "]"
	case render.WidgetTextArea:
		box := r.theme.Panel.Width(32).Height(w.Lines).Render(w.Value)
		body = lipgloss.JoinVertical(lipgloss.Left, label, box)
	case render.WidgetConsole:
		box := r.theme.Panel.Height(w.Lines).Render(w.Text)
		body = lipgloss.JoinVertical(lipgloss.Left, label, box)
	case render.WidgetCheckboxGroup:
		parts := make([]string, 0, len(w.Choices))
		for _, c := range w.Choices {
			mark := "[ ]"
			if c.Selected {
				mark = "[x]"
			}
			parts = append(parts, mark+" "+c.Label)
		}
		body = label + strings.Join(parts, "  ")
	case render.WidgetRadioGroup:
		parts := make([]string, 0, len(w.Choices))
		for _, c := range w.Choices {
			mark := "( )"
			if c.Selected {
				mark = "(•)"
			}
			parts = append(parts, mark+" "+c.Label)
		}
		body = label + strings.Join(parts, "  ")
	case render.WidgetSwitch:
		state := r.theme.Muted.Render("off")
		if w.Value == "true" {
			state = r.theme.Success.Render("on")
		}
		body = label + "[" + state + "]"
	case render.WidgetSelect:
		current := w.Value
		for _, c := range w.Choices {
			if c.Selected {
				current = c.Label
			}
		}
		body = label + "< " + current + " >"
	case render.WidgetButton:
		style := r.theme.Button
		if w.Primary {
			style = r.theme.Primary
		}
		if w.Action == render.ActionStop {
			style = r.theme.Danger
		}
		body = style.Render("[ " + w.Label + " ]")
	case render.WidgetFallback:
		name := w.Label
		if name == "" {
			name = "field"
		}
		body = r.theme.Danger.Render(fmt.Sprintf("! %s: %s", name, w.Problem))
	default:
		body = label + w.Value
	}

	if w.ReadOnly && w.Kind != render.WidgetConsole {
		body = r.theme.Muted.Render(body)
	}
	return cursor + body
}
