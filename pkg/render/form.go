package render

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/goliatone/go-corepanel/pkg/schema"
)

const defaultLines = 3

// Form is a live widget tree bound to one document and one surface.
type Form struct {
	mu sync.Mutex

	id          schema.DocumentID
	title       string
	description string
	surface     Surface

	rows    []Row
	buttons []Widget
	back    *Widget

	keys    map[string]struct{}
	fields  map[string]schema.Field
	values  map[string]string
	checked map[string]map[string]bool

	onAction ActionFunc
	onHide   func()
	detached bool
	logger   *slog.Logger
}

// Render builds the widget tree for doc. It never fails: malformed fields are
// replaced by disabled fallback widgets and logged.
func Render(doc schema.Document, surface Surface, onAction ActionFunc, opts ...Option) *Form {
	cfg := newConfig(opts)
	form := &Form{
		id:          doc.ID,
		title:       doc.Title,
		description: doc.Description,
		surface:     surface,
		keys:        make(map[string]struct{}, doc.FieldCount()),
		fields:      make(map[string]schema.Field, doc.FieldCount()),
		values:      make(map[string]string, doc.FieldCount()),
		checked:     make(map[string]map[string]bool),
		onAction:    onAction,
		logger:      cfg.logger,
	}

	for r, group := range doc.Fields {
		row := Row{Widgets: make([]Widget, 0, len(group))}
		for i, field := range group {
			widget, err := form.build(field)
			if err != nil {
				widget = fallback(field, err)
				form.logger.Warn("form field rendered as fallback",
					"form", string(doc.ID), "row", r, "position", i,
					"key", field.Key, "type", string(field.Type), "error", err)
			}
			row.Widgets = append(row.Widgets, widget)
		}
		form.rows = append(form.rows, row)
	}

	for _, label := range doc.Buttons {
		if strings.TrimSpace(label) == "" {
			continue
		}
		form.buttons = append(form.buttons, buttonWidget(label, label))
	}

	if surface == Inline {
		back := Widget{
			Key:    schema.ButtonStop,
			Kind:   WidgetButton,
			Label:  cfg.backLabel,
			Action: ActionStop,
		}
		form.back = &back
	}
	return form
}

func (f *Form) build(field schema.Field) (Widget, error) {
	if err := field.Validate(); err != nil {
		return Widget{}, err
	}
	if _, dup := f.keys[field.Key]; dup {
		return Widget{}, fmt.Errorf("%w %q", schema.ErrDuplicateKey, field.Key)
	}
	f.keys[field.Key] = struct{}{}

	w := Widget{
		Key:         field.Key,
		Label:       field.Label,
		LabelHidden: field.LabelHidden,
		Placeholder: field.Placeholder,
		Required:    field.Required,
		ReadOnly:    field.ReadOnly,
		Validator:   field.Validator,
	}

	switch {
	case field.Type.IsText():
		w.Kind = WidgetInput
		w.InputKind = field.Type.InputKind()
		f.values[field.Key] = field.Value
	case field.Type == schema.FieldTextArea:
		w.Kind = WidgetTextArea
		w.Lines = linesOrDefault(field.Lines)
		f.values[field.Key] = field.Value
	case field.Type == schema.FieldConsole:
		w.Kind = WidgetConsole
		w.Lines = linesOrDefault(field.Lines)
		w.ReadOnly = true
		raw := field.Value
		if raw == "" {
			raw = field.Placeholder
		}
		w.Value = raw
		w.Text = ansi.Strip(raw)
		return w, nil
	case field.Type == schema.FieldCheckbox:
		w.Kind = WidgetCheckboxGroup
		set := make(map[string]bool, len(field.Items))
		if field.Value != "" {
			for _, v := range strings.Split(field.Value, ",") {
				if field.HasItem(v) {
					set[v] = true
				}
			}
		}
		f.checked[field.Key] = set
	case field.Type == schema.FieldRadioButton:
		w.Kind = WidgetRadioGroup
		if field.HasItem(field.Value) {
			f.values[field.Key] = field.Value
		} else {
			f.values[field.Key] = ""
		}
	case field.Type == schema.FieldSwitch:
		w.Kind = WidgetSwitch
		f.values[field.Key] = boolString(field.Value == "true")
	case field.Type == schema.FieldSelect:
		w.Kind = WidgetSelect
		if field.HasItem(field.Value) {
			f.values[field.Key] = field.Value
		} else {
			f.values[field.Key] = field.Items[0].Value
		}
	case field.Type == schema.FieldButton:
		label := field.Label
		if label == "" {
			label = field.Key
		}
		return buttonWidget(field.Key, label), nil
	}

	f.fields[field.Key] = field
	return w, nil
}

func fallback(field schema.Field, err error) Widget {
	label := field.Label
	if label == "" {
		label = field.Key
	}
	return Widget{
		Key:      field.Key,
		Kind:     WidgetFallback,
		Label:    label,
		Disabled: true,
		Problem:  err.Error(),
	}
}

func buttonWidget(key, label string) Widget {
	w := Widget{Key: key, Kind: WidgetButton, Label: label, Action: actionForKey(key)}
	switch key {
	case schema.ButtonSubmit, schema.ButtonOk, schema.ButtonDialogOk:
		w.Primary = true
	}
	return w
}

func actionForKey(key string) ActionKind {
	switch key {
	case schema.ButtonCancel:
		return ActionCancel
	case schema.ButtonDialogClose:
		return ActionClose
	default:
		return ActionSubmit
	}
}

func linesOrDefault(n int) int {
	if n <= 0 {
		return defaultLines
	}
	return n
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// ID returns the document id the form was rendered from.
func (f *Form) ID() schema.DocumentID { return f.id }

// Title returns the document title.
func (f *Form) Title() string { return f.title }

// Description returns the raw document description.
func (f *Form) Description() string { return f.description }

// Surface returns the surface the form was rendered for.
func (f *Form) Surface() Surface { return f.surface }

// Detached reports whether the form was replaced, cleared or hidden.
func (f *Form) Detached() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detached
}

// Rows returns the widget rows with the current state applied.
func (f *Form) Rows() []Row {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Row, len(f.rows))
	for i, row := range f.rows {
		widgets := make([]Widget, len(row.Widgets))
		for j, w := range row.Widgets {
			widgets[j] = f.withState(w)
		}
		out[i] = Row{Widgets: widgets}
	}
	return out
}

// Buttons returns the legacy button group.
func (f *Form) Buttons() []Widget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Widget(nil), f.buttons...)
}

// Back returns the inline Back affordance, if present.
func (f *Form) Back() (Widget, bool) {
	if f.back == nil {
		return Widget{}, false
	}
	return *f.back, true
}

// Widgets flattens rows, the button group and the Back affordance in display
// order.
func (f *Form) Widgets() []Widget {
	var out []Widget
	for _, row := range f.Rows() {
		out = append(out, row.Widgets...)
	}
	out = append(out, f.Buttons()...)
	if back, ok := f.Back(); ok {
		out = append(out, back)
	}
	return out
}

// Problems returns the fallback widgets produced for malformed fields.
func (f *Form) Problems() []Widget {
	var out []Widget
	for _, row := range f.rows {
		for _, w := range row.Widgets {
			if w.Kind == WidgetFallback {
				out = append(out, w)
			}
		}
	}
	return out
}

func (f *Form) withState(w Widget) Widget {
	if _, ok := f.fields[w.Key]; !ok || w.Kind == WidgetFallback || w.Kind == WidgetButton {
		return w
	}
	field := f.fields[w.Key]
	switch w.Kind {
	case WidgetCheckboxGroup:
		set := f.checked[w.Key]
		w.Choices = make([]Choice, len(field.Items))
		for i, item := range field.Items {
			w.Choices[i] = Choice{Value: item.Value, Label: item.Label, Selected: set[item.Value]}
		}
		w.Value = checkedValue(field, set)
	case WidgetRadioGroup, WidgetSelect:
		current := f.values[w.Key]
		w.Choices = make([]Choice, len(field.Items))
		for i, item := range field.Items {
			w.Choices[i] = Choice{Value: item.Value, Label: item.Label, Selected: item.Value == current}
		}
		w.Value = current
	default:
		w.Value = f.values[w.Key]
	}
	return w
}

func checkedValue(field schema.Field, set map[string]bool) string {
	var parts []string
	for _, item := range field.Items {
		if set[item.Value] {
			parts = append(parts, item.Value)
		}
	}
	return strings.Join(parts, ",")
}

// SetValue assigns the value of a data widget. Checkbox groups take a comma
// separated list of item values; switches take "true" or "false".
func (f *Form) SetValue(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	field, err := f.editable(key)
	if err != nil {
		return err
	}

	switch {
	case field.Type == schema.FieldCheckbox:
		set := make(map[string]bool)
		if value != "" {
			for _, v := range strings.Split(value, ",") {
				if !field.HasItem(v) {
					return fmt.Errorf("%w: %q for %s", ErrInvalidChoice, v, key)
				}
				set[v] = true
			}
		}
		f.checked[key] = set
	case field.Type == schema.FieldRadioButton || field.Type == schema.FieldSelect:
		if !field.HasItem(value) {
			return fmt.Errorf("%w: %q for %s", ErrInvalidChoice, value, key)
		}
		f.values[key] = value
	case field.Type == schema.FieldSwitch:
		if value != "true" && value != "false" {
			return fmt.Errorf("%w: %q for %s", ErrInvalidChoice, value, key)
		}
		f.values[key] = value
	default:
		f.values[key] = value
	}
	return nil
}

// Toggle flips a checkbox item or a switch, or selects a radio item.
func (f *Form) Toggle(key, item string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	field, err := f.editable(key)
	if err != nil {
		return err
	}

	switch field.Type {
	case schema.FieldCheckbox:
		if !field.HasItem(item) {
			return fmt.Errorf("%w: %q for %s", ErrInvalidChoice, item, key)
		}
		f.checked[key][item] = !f.checked[key][item]
	case schema.FieldSwitch:
		f.values[key] = boolString(f.values[key] != "true")
	case schema.FieldRadioButton, schema.FieldSelect:
		if !field.HasItem(item) {
			return fmt.Errorf("%w: %q for %s", ErrInvalidChoice, item, key)
		}
		f.values[key] = item
	default:
		return fmt.Errorf("%w: %s", ErrNotEditable, key)
	}
	return nil
}

func (f *Form) editable(key string) (schema.Field, error) {
	if f.detached {
		return schema.Field{}, ErrDetached
	}
	field, ok := f.fields[key]
	if !ok {
		if f.isWidget(key) {
			return schema.Field{}, fmt.Errorf("%w: %s", ErrNotEditable, key)
		}
		return schema.Field{}, fmt.Errorf("%w: %s", ErrUnknownWidget, key)
	}
	if field.ReadOnly {
		return schema.Field{}, fmt.Errorf("%w: %s", ErrReadOnly, key)
	}
	return field, nil
}

func (f *Form) isWidget(key string) bool {
	for _, row := range f.rows {
		for _, w := range row.Widgets {
			if w.Key == key {
				return true
			}
		}
	}
	return false
}

func (f *Form) button(key string) (Widget, bool) {
	for _, row := range f.rows {
		for _, w := range row.Widgets {
			if w.Kind == WidgetButton && w.Key == key {
				return w, true
			}
		}
	}
	for _, w := range f.buttons {
		if w.Key == key {
			return w, true
		}
	}
	return Widget{}, false
}

// Press activates the document button with the given key and emits its
// action with a snapshot of the form data. Pressing a button on a dialog
// hides the dialog. Document buttons win over the Back affordance; use
// PressBack to leave the page.
func (f *Form) Press(key string) error {
	f.mu.Lock()
	if f.detached {
		f.mu.Unlock()
		return ErrDetached
	}
	w, ok := f.button(key)
	if !ok {
		f.mu.Unlock()
		if f.back != nil && f.back.Key == key {
			return f.PressBack()
		}
		if f.isWidget(key) {
			return fmt.Errorf("%w: %s is not a button", ErrNotEditable, key)
		}
		return fmt.Errorf("%w: %s", ErrUnknownWidget, key)
	}
	return f.press(w)
}

// PressBack activates the inline Back affordance. It always emits a Stop
// action keyed Stop, whatever buttons the document declares.
func (f *Form) PressBack() error {
	if f.back == nil {
		return fmt.Errorf("%w: %s form has no back", ErrUnknownWidget, f.surface)
	}
	f.mu.Lock()
	if f.detached {
		f.mu.Unlock()
		return ErrDetached
	}
	return f.press(*f.back)
}

// PressWidget activates w as read from Widgets or Back, routing the Back
// affordance through PressBack.
func (f *Form) PressWidget(w Widget) error {
	if w.Kind == WidgetButton && w.Action == ActionStop {
		return f.PressBack()
	}
	return f.Press(w.Key)
}

// press emits w's action. f.mu must be held; it is released.
func (f *Form) press(w Widget) error {
	action := Action{Kind: w.Action, Key: w.Key, FormID: f.id, Surface: f.surface, Data: f.snapshot()}
	hide := f.surface == Dialog
	if hide {
		f.detached = true
	}
	onHide := f.onHide
	f.mu.Unlock()

	if hide && onHide != nil {
		onHide()
	}
	f.emit(action)
	return nil
}

// Dismiss hides a dialog without a button press and emits exactly one Close
// action keyed CloseDialog.
func (f *Form) Dismiss() error {
	f.mu.Lock()
	if f.surface != Dialog {
		f.mu.Unlock()
		return ErrNotDialog
	}
	if f.detached {
		f.mu.Unlock()
		return ErrDetached
	}
	f.detached = true
	action := Action{Kind: ActionClose, Key: schema.ButtonDialogClose, FormID: f.id, Surface: f.surface, Data: f.snapshot()}
	onHide := f.onHide
	f.mu.Unlock()

	if onHide != nil {
		onHide()
	}
	f.emit(action)
	return nil
}

func (f *Form) emit(action Action) {
	if f.onAction != nil {
		f.onAction(action)
	}
}

// detach marks the form as replaced. It reports whether the form was live.
func (f *Form) detach() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detached {
		return false
	}
	f.detached = true
	return true
}

// Snapshot returns the current form data.
func (f *Form) Snapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Form) snapshot() map[string]string {
	data := make(map[string]string, len(f.fields))
	for key, field := range f.fields {
		switch field.Type {
		case schema.FieldCheckbox:
			if v := checkedValue(field, f.checked[key]); v != "" {
				data[key] = v
			}
		case schema.FieldRadioButton:
			if v := f.values[key]; v != "" {
				data[key] = v
			}
		default:
			data[key] = f.values[key]
		}
	}
	return data
}

// Validate checks required and validator constraints of the editable fields
// and returns a problem per offending key. A nil map means the form is valid.
func (f *Form) Validate() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := f.snapshot()
	var problems map[string]string
	for key, field := range f.fields {
		if field.ReadOnly || field.Type == schema.FieldSwitch {
			continue
		}
		if msg := field.CheckValue(data[key]); msg != "" {
			if problems == nil {
				problems = make(map[string]string)
			}
			problems[key] = msg
		}
	}
	return problems
}
