package session

import (
	"log/slog"

	"github.com/goliatone/go-corepanel/pkg/diag"
)

const defaultActionBuffer = 16

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the channel logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReporter sets where operator-facing diagnostics go.
func WithReporter(r diag.Reporter) Option {
	return func(c *Channel) {
		if r != nil {
			c.reporter = r
		}
	}
}

// WithOnClosed registers the hook run after Stop finished its local
// teardown.
func WithOnClosed(fn func(extensionID string)) Option {
	return func(c *Channel) {
		c.onClosed = fn
	}
}

// WithStateHook registers a callback invoked on every state change.
func WithStateHook(fn func(Status)) Option {
	return func(c *Channel) {
		c.onState = fn
	}
}

// WithActionBuffer sets how many form actions may wait for dispatch.
func WithActionBuffer(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.actionBuffer = n
		}
	}
}
