package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/schema"
)

const defaultMaxAttempts = 3

// Filler walks a live form field by field with terminal prompts, then asks
// which button to press and presses it.
type Filler struct {
	driver      PromptDriver
	theme       Theme
	maxAttempts int
}

// New constructs a Filler backed by survey unless a driver is supplied.
func New(options ...Option) *Filler {
	f := &Filler{
		theme:       Theme{InfoPrefix: "", ErrorPrefix: "! "},
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(os.Stdout)
	}
	return f
}

// Fill prompts for every editable widget, re-prompting fields that fail
// validation, and finally presses the chosen button. The returned action is
// the one the form emitted. Aborting a dialog dismisses it.
func (f *Filler) Fill(ctx context.Context, form *render.Form) (render.Action, error) {
	if form == nil {
		return render.Action{}, errors.New("prompt: form is nil")
	}
	action, err := f.fill(ctx, form)
	if errors.Is(err, ErrAborted) && form.Surface() == render.Dialog {
		_ = form.Dismiss()
	}
	return action, err
}

func (f *Filler) fill(ctx context.Context, form *render.Form) (render.Action, error) {
	if form.Title() != "" {
		if err := f.driver.Info(ctx, f.theme.InfoPrefix+form.Title()); err != nil {
			return render.Action{}, err
		}
	}

	for _, row := range form.Rows() {
		for _, w := range row.Widgets {
			if err := f.widget(ctx, form, w); err != nil {
				return render.Action{}, err
			}
		}
	}

	if form.Surface() == render.Dialog && !hasButtons(form) {
		// A dialog without buttons can only be dismissed.
		data := form.Snapshot()
		if err := form.Dismiss(); err != nil {
			return render.Action{}, err
		}
		return render.Action{
			Kind:    render.ActionClose,
			Key:     schema.ButtonDialogClose,
			FormID:  form.ID(),
			Surface: form.Surface(),
			Data:    data,
		}, nil
	}

	for attempt := 0; ; attempt++ {
		button, err := f.chooseButton(ctx, form)
		if err != nil {
			return render.Action{}, err
		}
		if button.Action == render.ActionSubmit {
			problems := form.Validate()
			if len(problems) > 0 {
				if attempt+1 >= f.maxAttempts {
					return render.Action{}, ErrTooManyAttempts
				}
				if err := f.repair(ctx, form, problems); err != nil {
					return render.Action{}, err
				}
				continue
			}
		}
		return press(form, button)
	}
}

func press(form *render.Form, button render.Widget) (render.Action, error) {
	action := render.Action{
		Kind:    button.Action,
		Key:     button.Key,
		FormID:  form.ID(),
		Surface: form.Surface(),
		Data:    form.Snapshot(),
	}
	if err := form.PressWidget(button); err != nil {
		return render.Action{}, err
	}
	return action, nil
}

func (f *Filler) repair(ctx context.Context, form *render.Form, problems map[string]string) error {
	for _, row := range form.Rows() {
		for _, w := range row.Widgets {
			msg, ok := problems[w.Key]
			if !ok {
				continue
			}
			if err := f.driver.Info(ctx, fmt.Sprintf("%s%s: %s", f.theme.ErrorPrefix, displayLabel(w), msg)); err != nil {
				return err
			}
			if err := f.widget(ctx, form, w); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasButtons(form *render.Form) bool {
	for _, w := range form.Widgets() {
		if w.Kind == render.WidgetButton && !w.Disabled {
			return true
		}
	}
	return false
}

func (f *Filler) chooseButton(ctx context.Context, form *render.Form) (render.Widget, error) {
	var buttons []render.Widget
	for _, w := range form.Widgets() {
		if w.Kind == render.WidgetButton && !w.Disabled {
			buttons = append(buttons, w)
		}
	}
	if len(buttons) == 0 {
		return render.Widget{}, ErrNoButtons
	}
	if len(buttons) == 1 {
		return buttons[0], nil
	}

	options := make([]string, len(buttons))
	def := 0
	for i, b := range buttons {
		options[i] = b.Label
		if b.Primary {
			def = i
		}
	}
	idx, err := f.driver.Select(ctx, SelectConfig{Message: "Action", Options: options, DefaultIndex: def})
	if err != nil {
		return render.Widget{}, err
	}
	if idx < 0 || idx >= len(buttons) {
		return render.Widget{}, fmt.Errorf("prompt: button index %d out of range", idx)
	}
	return buttons[idx], nil
}

func (f *Filler) widget(ctx context.Context, form *render.Form, w render.Widget) error {
	switch w.Kind {
	case render.WidgetConsole:
		if w.Text == "" {
			return nil
		}
		return f.driver.Info(ctx, w.Text)
	case render.WidgetFallback:
		return f.driver.Info(ctx, fmt.Sprintf("%s%s: %s", f.theme.ErrorPrefix, displayLabel(w), w.Problem))
	case render.WidgetButton:
		return nil
	}
	if !w.Editable() {
		return nil
	}

	field := schema.Field{Key: w.Key, Required: w.Required, Validator: w.Validator}
	label := displayLabel(w)

	switch w.Kind {
	case render.WidgetInput, render.WidgetTextArea:
		for attempt := 0; attempt < f.maxAttempts; attempt++ {
			value, err := f.askText(ctx, w, label)
			if err != nil {
				return err
			}
			if msg := field.CheckValue(value); msg != "" {
				if err := f.driver.Info(ctx, fmt.Sprintf("%s%s: %s", f.theme.ErrorPrefix, label, msg)); err != nil {
					return err
				}
				continue
			}
			return form.SetValue(w.Key, value)
		}
		return fmt.Errorf("%w: %s", ErrTooManyAttempts, w.Key)
	case render.WidgetSwitch:
		on, err := f.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: w.Value == "true"})
		if err != nil {
			return err
		}
		value := "false"
		if on {
			value = "true"
		}
		return form.SetValue(w.Key, value)
	case render.WidgetSelect, render.WidgetRadioGroup:
		options, current := choiceOptions(w)
		def := 0
		if len(current) > 0 {
			def = current[0]
		}
		idx, err := f.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: def})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(w.Choices) {
			return fmt.Errorf("prompt: choice index %d out of range for %s", idx, w.Key)
		}
		return form.SetValue(w.Key, w.Choices[idx].Value)
	case render.WidgetCheckboxGroup:
		options, current := choiceOptions(w)
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{Message: label, Options: options, Defaults: current})
		if err != nil {
			return err
		}
		value := ""
		for _, idx := range picked {
			if idx < 0 || idx >= len(w.Choices) {
				continue
			}
			if value != "" {
				value += ","
			}
			value += w.Choices[idx].Value
		}
		return form.SetValue(w.Key, value)
	}
	return nil
}

func (f *Filler) askText(ctx context.Context, w render.Widget, label string) (string, error) {
	switch {
	case w.Kind == render.WidgetTextArea:
		return f.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: w.Value, Help: w.Placeholder})
	case w.InputKind == "password":
		return f.driver.Password(ctx, InputConfig{Message: label, Default: w.Value, Help: w.Placeholder})
	default:
		return f.driver.Input(ctx, InputConfig{Message: label, Default: w.Value, Help: w.Placeholder})
	}
}

func choiceOptions(w render.Widget) ([]string, []int) {
	options := make([]string, len(w.Choices))
	var selected []int
	for i, c := range w.Choices {
		label := c.Label
		if label == "" {
			label = c.Value
		}
		options[i] = label
		if c.Selected {
			selected = append(selected, i)
		}
	}
	return options, selected
}

func displayLabel(w render.Widget) string {
	if w.Label != "" {
		return w.Label
	}
	return w.Key
}
