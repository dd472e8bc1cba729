package schema

// Row groups fields that render side by side.
func Row(fields ...Field) []Field {
	return fields
}

// New builds a document from rows.
func New(id DocumentID, title, description string, rows ...[]Field) Document {
	return Document{
		ID:          id,
		Title:       title,
		Description: description,
		Fields:      rows,
	}
}

// Button returns a Button field whose key is reported back when pressed.
func Button(key, label string) Field {
	return Field{Key: key, Type: FieldButton, Label: label}
}

// Message builds the single-button dialog hosts use for notices.
func Message(title, text string) Document {
	return Document{
		ID:          DocumentID("message"),
		Title:       title,
		Description: text,
		Fields: [][]Field{
			{Button(ButtonDialogOk, "Ok")},
		},
	}
}
