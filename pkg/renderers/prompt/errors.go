package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrTooManyAttempts is returned when a field keeps failing validation.
	ErrTooManyAttempts = errors.New("prompt: too many invalid attempts")
	// ErrNoButtons is returned for an inline form without any button to press.
	ErrNoButtons = errors.New("prompt: form has no buttons")
)
