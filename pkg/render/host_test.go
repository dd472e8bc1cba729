package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/schema"
)

func TestHost_MountReplacesIdempotently(t *testing.T) {
	var changes []render.ChangeKind
	host := render.NewHost(render.WithChangeHook(func(c render.Change) {
		changes = append(changes, c.Kind)
	}))

	rec := &recorder{}
	doc := loginDoc()
	first := host.Mount(doc, render.Inline, rec.on)
	second := host.Mount(doc, render.Inline, rec.on)

	if host.Live() != 1 {
		t.Fatalf("expected one live form, got %d", host.Live())
	}
	if host.Current(render.Inline) != second {
		t.Fatalf("expected the second form to be current")
	}
	if !first.Detached() {
		t.Fatalf("expected the replaced form to be detached")
	}
	if err := first.Press(schema.ButtonSubmit); !errors.Is(err, render.ErrDetached) {
		t.Fatalf("expected ErrDetached from replaced form, got %v", err)
	}
	if err := first.SetValue("name", "x"); !errors.Is(err, render.ErrDetached) {
		t.Fatalf("expected ErrDetached from replaced form, got %v", err)
	}
	if len(rec.actions) != 0 {
		t.Fatalf("replaced form must not reach onAction, got %+v", rec.actions)
	}

	// A different document on the same surface also replaces.
	host.Mount(schema.Message("x", "y"), render.Inline, nil)
	if host.Live() != 1 || !second.Detached() {
		t.Fatalf("expected mount of a different document to replace the surface")
	}

	want := []render.ChangeKind{render.ChangeMounted, render.ChangeMounted, render.ChangeMounted}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestHost_SurfacesIndependent(t *testing.T) {
	host := render.NewHost()
	inline := host.Mount(loginDoc(), render.Inline, nil)
	dialog := host.Mount(schema.Message("x", "y"), render.Dialog, nil)

	if host.Live() != 2 {
		t.Fatalf("expected two live forms, got %d", host.Live())
	}
	if inline.Detached() || dialog.Detached() {
		t.Fatalf("forms on different surfaces must coexist")
	}
}

func TestHost_DialogDismissClearsSurface(t *testing.T) {
	var changes []render.Change
	host := render.NewHost(render.WithChangeHook(func(c render.Change) { changes = append(changes, c) }))
	rec := &recorder{}
	host.Mount(schema.Message("x", "y"), render.Dialog, rec.on)

	if err := host.Dismiss(); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if err := host.Dismiss(); !errors.Is(err, render.ErrDetached) {
		t.Fatalf("expected ErrDetached without a dialog, got %v", err)
	}
	if host.Current(render.Dialog) != nil {
		t.Fatalf("expected dialog surface to be empty")
	}
	if len(rec.actions) != 1 || rec.actions[0].Key != schema.ButtonDialogClose {
		t.Fatalf("expected exactly one CloseDialog action, got %+v", rec.actions)
	}
	if last := changes[len(changes)-1]; last.Kind != render.ChangeHidden || last.Surface != render.Dialog {
		t.Fatalf("expected hidden change for dialog, got %+v", last)
	}
}

func TestHost_ClearAllDetachesWithoutActions(t *testing.T) {
	host := render.NewHost()
	rec := &recorder{}
	inline := host.Mount(loginDoc(), render.Inline, rec.on)
	dialog := host.Mount(schema.Message("x", "y"), render.Dialog, rec.on)

	host.ClearAll()

	if host.Live() != 0 {
		t.Fatalf("expected no live forms, got %d", host.Live())
	}
	if !inline.Detached() || !dialog.Detached() {
		t.Fatalf("expected both forms detached")
	}
	if len(rec.actions) != 0 {
		t.Fatalf("clearing must not emit actions, got %+v", rec.actions)
	}
}

type stubRenderer struct{ name string }

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(_ context.Context, form *render.Form) ([]byte, error) {
	return []byte(form.Title()), nil
}

func TestRegistry(t *testing.T) {
	reg, err := render.NewRegistry(stubRenderer{"b"}, stubRenderer{"a"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := reg.Register(stubRenderer{"a"}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if diff := cmp.Diff([]string{"a", "b"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	out, err := reg.Render(context.Background(), "a", render.Render(loginDoc(), render.Inline, nil))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "Login" {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := reg.Get("missing"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected ErrRendererNotFound, got %v", err)
	}
}
