package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrMissingKey is reported for fields without a key.
	ErrMissingKey = errors.New("schema: field key is required")
	// ErrDuplicateKey is reported when two fields of one document share a key.
	ErrDuplicateKey = errors.New("schema: duplicate field key")
	// ErrUnknownType is reported for field types outside the closed set.
	ErrUnknownType = errors.New("schema: unknown field type")
	// ErrMissingItems is reported for choice fields without items.
	ErrMissingItems = errors.New("schema: field requires items")
)

// FieldError ties a validation failure to the field position that caused it.
type FieldError struct {
	Row   int
	Index int
	Key   string
	Err   error
}

func (e *FieldError) Error() string {
	key := e.Key
	if key == "" {
		key = "<unnamed>"
	}
	return fmt.Sprintf("field %s (row %d, position %d): %v", key, e.Row, e.Index, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Validate checks the attributes that matter for the field type. It does not
// know about sibling fields; duplicate keys are reported by Document.Validate.
func (f Field) Validate() error {
	if strings.TrimSpace(f.Key) == "" {
		return ErrMissingKey
	}
	if !f.Type.Valid() {
		return fmt.Errorf("%w %q", ErrUnknownType, string(f.Type))
	}
	if f.Type.NeedsItems() && len(f.Items) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingItems, f.Type)
	}
	return nil
}

// Validate aggregates every field problem of the document. The returned error
// is a *multierror.Error whose entries are *FieldError values, or nil.
func (d Document) Validate() error {
	var result *multierror.Error
	seen := make(map[string]struct{}, d.FieldCount())

	for r, row := range d.Fields {
		for i, field := range row {
			if err := field.Validate(); err != nil {
				result = multierror.Append(result, &FieldError{Row: r, Index: i, Key: field.Key, Err: err})
				continue
			}
			if _, dup := seen[field.Key]; dup {
				result = multierror.Append(result, &FieldError{Row: r, Index: i, Key: field.Key, Err: ErrDuplicateKey})
				continue
			}
			seen[field.Key] = struct{}{}
		}
	}

	return result.ErrorOrNil()
}

// CheckValue applies the field validator and required flag to a candidate
// value. An empty string is returned when the value is acceptable.
func (f Field) CheckValue(value string) string {
	if f.Required && strings.TrimSpace(value) == "" {
		return "required"
	}
	if f.Validator == ValidatorDigitsOnly && value != "" {
		for _, r := range value {
			if r < '0' || r > '9' {
				return "digits only"
			}
		}
	}
	return ""
}
