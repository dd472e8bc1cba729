package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyDocument is returned when a push carries no UI payload.
var ErrEmptyDocument = errors.New("schema: empty document")

// Decode parses a UI JSON payload. Field-level problems are left for Validate
// and the renderer; only a payload that is not a JSON object fails here.
func Decode(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, ErrEmptyDocument
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, fmt.Errorf("schema: decode document: %w", err)
	}
	return doc, nil
}

// DecodeString is a convenience wrapper over Decode.
func DecodeString(payload string) (Document, error) {
	return Decode([]byte(payload))
}

// JSON encodes the document in the wire shape hosts push.
func (d Document) JSON() (string, error) {
	if d.Fields == nil {
		d.Fields = [][]Field{}
	}
	out, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("schema: encode document: %w", err)
	}
	return string(out), nil
}
