package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType enumerates the field kinds a document can declare.
type FieldType string

const (
	FieldText     FieldType = "Text"
	FieldInput    FieldType = "Input"
	FieldEmail    FieldType = "Email"
	FieldNumber   FieldType = "Number"
	FieldPassword FieldType = "Password"
	FieldTel      FieldType = "Tel"
	FieldURL      FieldType = "Url"
	FieldSearch   FieldType = "Search"
	FieldDate     FieldType = "Date"
	FieldTime     FieldType = "Time"
	FieldColor    FieldType = "Color"

	FieldConsole     FieldType = "Console"
	FieldTextArea    FieldType = "TextArea"
	FieldCheckbox    FieldType = "Checkbox"
	FieldRadioButton FieldType = "RadioButton"
	FieldSwitch      FieldType = "Switch"
	FieldSelect      FieldType = "Select"
	FieldButton      FieldType = "Button"
)

// Reserved button keys shared by hosts and the panel.
const (
	ButtonSubmit      = "Submit"
	ButtonCancel      = "Cancel"
	ButtonOk          = "Ok"
	ButtonDialogClose = "CloseDialog"
	ButtonDialogOk    = "OkDialog"
	ButtonStop        = "Stop"
)

// ValidatorDigitsOnly restricts a text value to ASCII digits.
const ValidatorDigitsOnly = "digitsOnly"

var textKinds = map[FieldType]string{
	FieldText:     "text",
	FieldInput:    "text",
	FieldEmail:    "email",
	FieldNumber:   "number",
	FieldPassword: "password",
	FieldTel:      "tel",
	FieldURL:      "url",
	FieldSearch:   "search",
	FieldDate:     "date",
	FieldTime:     "time",
	FieldColor:    "color",
}

// Valid reports whether t is one of the declared kinds.
func (t FieldType) Valid() bool {
	if t.IsText() {
		return true
	}
	switch t {
	case FieldConsole, FieldTextArea, FieldCheckbox, FieldRadioButton,
		FieldSwitch, FieldSelect, FieldButton:
		return true
	default:
		return false
	}
}

// IsText reports whether t renders as a single-line scalar input.
func (t FieldType) IsText() bool {
	_, ok := textKinds[t]
	return ok
}

// InputKind returns the lower-cased scalar input kind for text-like types and
// an empty string for everything else.
func (t FieldType) InputKind() string {
	return textKinds[t]
}

// NeedsItems reports whether t requires a non-empty Items list.
func (t FieldType) NeedsItems() bool {
	switch t {
	case FieldCheckbox, FieldRadioButton, FieldSelect:
		return true
	default:
		return false
	}
}

// Item is one selectable option of a Checkbox, RadioButton or Select field.
type Item struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field describes a single form field.
type Field struct {
	Key         string    `json:"key"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label,omitempty"`
	LabelHidden bool      `json:"labelHidden,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required,omitempty"`
	ReadOnly    bool      `json:"readonly,omitempty"`
	Value       string    `json:"value,omitempty"`
	Validator   string    `json:"validator,omitempty"`
	Items       []Item    `json:"items,omitempty"`
	Lines       int       `json:"lines,omitempty"`
}

// HasItem reports whether value matches one of the field items.
func (f Field) HasItem(value string) bool {
	for _, item := range f.Items {
		if item.Value == value {
			return true
		}
	}
	return false
}

// DocumentID identifies a form instance. Hosts send either a JSON number or a
// string; both decode to the same textual form.
type DocumentID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *DocumentID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("schema: document id: %w", err)
		}
		*id = DocumentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("schema: document id must be a string or number: %w", err)
	}
	*id = DocumentID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so documents round-trip.
func (id DocumentID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if s == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(s)) && strings.Trim(s, "0123456789.-eE+") == "" {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// Document is one server-pushed UI description.
type Document struct {
	ID          DocumentID `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Fields      [][]Field  `json:"fields"`
	Buttons     []string   `json:"buttons,omitempty"`
}

// FieldCount returns the number of fields across every row.
func (d Document) FieldCount() int {
	total := 0
	for _, row := range d.Fields {
		total += len(row)
	}
	return total
}
