package render

import "errors"

var (
	// ErrDetached is returned by interaction methods of a form that was
	// replaced, cleared or hidden.
	ErrDetached = errors.New("render: form is detached")
	// ErrUnknownWidget is returned when no widget matches the requested key.
	ErrUnknownWidget = errors.New("render: unknown widget")
	// ErrNotEditable is returned when the widget holds no user data.
	ErrNotEditable = errors.New("render: widget is not editable")
	// ErrReadOnly is returned for read-only or disabled widgets.
	ErrReadOnly = errors.New("render: widget is read-only")
	// ErrInvalidChoice is returned when a value does not match any item.
	ErrInvalidChoice = errors.New("render: value does not match any item")
	// ErrNotDialog is returned when dismissing an inline form.
	ErrNotDialog = errors.New("render: form is not a dialog")
)
