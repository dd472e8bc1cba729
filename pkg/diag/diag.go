// Package diag carries operator-facing diagnostics from the panel components
// to whatever front end is attached.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Severity orders diagnostics by how loudly a front end should surface them.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	// Blocking diagnostics need an explicit acknowledgement, like a modal
	// alert.
	Blocking
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Blocking:
		return "blocking"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Level maps the severity onto a slog level.
func (s Severity) Level() slog.Level {
	switch s {
	case Info:
		return slog.LevelInfo
	case Warning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Diagnostic is one reportable problem or notice.
type Diagnostic struct {
	Severity Severity
	Source   string
	Message  string
	Err      error
}

func (d Diagnostic) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %s: %v", d.Source, d.Message, d.Err)
	}
	return fmt.Sprintf("%s: %s", d.Source, d.Message)
}

// Reporter receives diagnostics. Implementations must be safe for concurrent
// use and must not block for long.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

// New builds a diagnostic from an error, using the error text as message.
func New(severity Severity, source string, err error) Diagnostic {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Diagnostic{Severity: severity, Source: source, Message: msg, Err: err}
}

// Logger writes diagnostics to a slog logger.
type Logger struct {
	logger *slog.Logger
}

// NewLogger returns a Reporter backed by logger, or slog.Default when nil.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Report(d Diagnostic) {
	attrs := []any{"source", d.Source, "severity", d.Severity.String()}
	if d.Err != nil {
		attrs = append(attrs, "error", d.Err)
	}
	l.logger.Log(context.Background(), d.Severity.Level(), d.Message, attrs...)
}

// Tee fans a diagnostic out to every non-nil reporter.
func Tee(reporters ...Reporter) Reporter {
	var out []Reporter
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return ReporterFunc(func(d Diagnostic) {
		for _, r := range out {
			r.Report(d)
		}
	})
}

// Recorder keeps every reported diagnostic in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	r.items = append(r.items, d)
	r.mu.Unlock()
}

// All returns a copy of the recorded diagnostics.
func (r *Recorder) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.items...)
}

// Count returns how many diagnostics of severity were recorded.
func (r *Recorder) Count(severity Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.items {
		if d.Severity == severity {
			n++
		}
	}
	return n
}

// Reset drops the recorded diagnostics.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}
