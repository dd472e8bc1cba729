package render

import "log/slog"

// Option configures Render and Host.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	onChange  func(Change)
	backLabel string
}

func newConfig(options []Option) config {
	cfg := config{
		logger:    slog.Default(),
		backLabel: "Back",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// WithLogger sets the logger used to report fallback widgets.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithChangeHook registers a callback invoked by Host whenever a surface
// changes. The hook runs outside of Host locks.
func WithChangeHook(fn func(Change)) Option {
	return func(cfg *config) {
		cfg.onChange = fn
	}
}

// WithBackLabel overrides the label of the inline Back affordance.
func WithBackLabel(label string) Option {
	return func(cfg *config) {
		if label != "" {
			cfg.backLabel = label
		}
	}
}
