package render

import "github.com/goliatone/go-corepanel/pkg/schema"

// Surface identifies where a form is displayed.
type Surface int

const (
	// Inline is the extension page itself.
	Inline Surface = iota
	// Dialog is a modal shown above the page.
	Dialog
)

func (s Surface) String() string {
	switch s {
	case Inline:
		return "inline"
	case Dialog:
		return "dialog"
	default:
		return "unknown"
	}
}

// ActionKind is the reduced action vocabulary a form can emit.
type ActionKind string

const (
	ActionSubmit ActionKind = "submit"
	ActionCancel ActionKind = "cancel"
	ActionClose  ActionKind = "close"
	ActionStop   ActionKind = "stop"
)

// Action is emitted for every user-initiated submission, button press or
// implicit dismissal.
type Action struct {
	Kind    ActionKind
	Key     string
	FormID  schema.DocumentID
	Surface Surface
	Data    map[string]string
}

// ActionFunc receives actions from a form.
type ActionFunc func(Action)

// WidgetKind enumerates the widgets a field can render as.
type WidgetKind string

const (
	WidgetInput         WidgetKind = "input"
	WidgetTextArea      WidgetKind = "textarea"
	WidgetConsole       WidgetKind = "console"
	WidgetCheckboxGroup WidgetKind = "checkbox"
	WidgetRadioGroup    WidgetKind = "radio"
	WidgetSwitch        WidgetKind = "switch"
	WidgetSelect        WidgetKind = "select"
	WidgetButton        WidgetKind = "button"
	WidgetFallback      WidgetKind = "fallback"
)

// Choice is one option of a choice widget with its current selection state.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// Widget is a rendered field. Values reflect the form state at the time the
// widget was read from the form.
type Widget struct {
	Key         string
	Kind        WidgetKind
	InputKind   string
	Label       string
	LabelHidden bool
	Placeholder string
	Required    bool
	ReadOnly    bool
	Disabled    bool
	Value       string
	Text        string
	Choices     []Choice
	Lines       int
	Validator   string
	Action      ActionKind
	Primary     bool
	Problem     string
}

// Editable reports whether the widget holds form data a user can change.
func (w Widget) Editable() bool {
	if w.Disabled || w.ReadOnly {
		return false
	}
	switch w.Kind {
	case WidgetInput, WidgetTextArea, WidgetCheckboxGroup, WidgetRadioGroup, WidgetSwitch, WidgetSelect:
		return true
	default:
		return false
	}
}

// Focusable reports whether a front end should let the cursor stop here.
func (w Widget) Focusable() bool {
	return w.Editable() || (w.Kind == WidgetButton && !w.Disabled)
}

// Row is one field group rendered side by side.
type Row struct {
	Widgets []Widget
}
