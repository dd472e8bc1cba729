package render

import (
	"sync"

	"github.com/goliatone/go-corepanel/pkg/schema"
)

// ChangeKind describes what happened to a surface.
type ChangeKind int

const (
	ChangeMounted ChangeKind = iota
	ChangeCleared
	ChangeHidden
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeMounted:
		return "mounted"
	case ChangeCleared:
		return "cleared"
	case ChangeHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// Change is passed to the hook registered with WithChangeHook.
type Change struct {
	Kind    ChangeKind
	Surface Surface
	Form    *Form
}

// Host owns the inline and dialog surfaces. Each surface holds at most one
// live form; mounting replaces whatever occupies the surface.
type Host struct {
	mu       sync.Mutex
	forms    map[Surface]*Form
	opts     []Option
	onChange func(Change)
}

// NewHost returns an empty host. Options are forwarded to every Render call.
func NewHost(opts ...Option) *Host {
	cfg := newConfig(opts)
	return &Host{
		forms:    make(map[Surface]*Form, 2),
		opts:     opts,
		onChange: cfg.onChange,
	}
}

// Mount renders doc on the given surface, detaching the form it replaces.
func (h *Host) Mount(doc schema.Document, surface Surface, onAction ActionFunc) *Form {
	form := Render(doc, surface, onAction, h.opts...)
	form.onHide = func() { h.hidden(surface, form) }

	h.mu.Lock()
	if old := h.forms[surface]; old != nil {
		old.detach()
	}
	h.forms[surface] = form
	h.mu.Unlock()

	h.notify(Change{Kind: ChangeMounted, Surface: surface, Form: form})
	return form
}

// Current returns the live form on a surface, or nil.
func (h *Host) Current(surface Surface) *Form {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.forms[surface]
}

// Live returns the number of live forms across all surfaces.
func (h *Host) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.forms)
}

// Clear detaches and removes the form on surface without emitting actions.
func (h *Host) Clear(surface Surface) {
	h.mu.Lock()
	form := h.forms[surface]
	delete(h.forms, surface)
	h.mu.Unlock()

	if form == nil {
		return
	}
	form.detach()
	h.notify(Change{Kind: ChangeCleared, Surface: surface, Form: form})
}

// ClearAll clears both surfaces.
func (h *Host) ClearAll() {
	h.Clear(Dialog)
	h.Clear(Inline)
}

// Dismiss dismisses the current dialog, if any. It returns ErrDetached when no
// dialog is shown.
func (h *Host) Dismiss() error {
	form := h.Current(Dialog)
	if form == nil {
		return ErrDetached
	}
	return form.Dismiss()
}

func (h *Host) hidden(surface Surface, form *Form) {
	h.mu.Lock()
	if h.forms[surface] != form {
		h.mu.Unlock()
		return
	}
	delete(h.forms, surface)
	h.mu.Unlock()

	h.notify(Change{Kind: ChangeHidden, Surface: surface, Form: form})
}

func (h *Host) notify(change Change) {
	if h.onChange != nil {
		h.onChange(change)
	}
}
