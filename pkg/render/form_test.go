package render_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-corepanel/pkg/render"
	"github.com/goliatone/go-corepanel/pkg/schema"
)

func loginDoc() schema.Document {
	return schema.New("e1", "Login", "Sign in",
		schema.Row(
			schema.Field{Key: "name", Type: schema.FieldText, Label: "Name", Required: true},
			schema.Field{Key: "port", Type: schema.FieldInput, Validator: schema.ValidatorDigitsOnly, Value: "80"},
		),
		schema.Row(
			schema.Field{Key: "proto", Type: schema.FieldSelect, Items: []schema.Item{{Value: "tcp", Label: "TCP"}, {Value: "udp", Label: "UDP"}}},
			schema.Field{Key: "tags", Type: schema.FieldCheckbox, Items: []schema.Item{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}}},
		),
		schema.Row(
			schema.Field{Key: "mode", Type: schema.FieldRadioButton, Items: []schema.Item{{Value: "x", Label: "X"}, {Value: "y", Label: "Y"}}},
			schema.Field{Key: "on", Type: schema.FieldSwitch},
			schema.Field{Key: "log", Type: schema.FieldConsole, Value: "\x1b[31mred\x1b[0m"},
		),
		schema.Row(schema.Button(schema.ButtonSubmit, "Submit")),
	)
}

type recorder struct {
	actions []render.Action
}

func (r *recorder) on(a render.Action) { r.actions = append(r.actions, a) }

func kinds(rows []render.Row) [][]render.WidgetKind {
	out := make([][]render.WidgetKind, len(rows))
	for i, row := range rows {
		for _, w := range row.Widgets {
			out[i] = append(out[i], w.Kind)
		}
	}
	return out
}

func TestRender_RowLayout(t *testing.T) {
	form := render.Render(loginDoc(), render.Inline, nil)

	want := [][]render.WidgetKind{
		{render.WidgetInput, render.WidgetInput},
		{render.WidgetSelect, render.WidgetCheckboxGroup},
		{render.WidgetRadioGroup, render.WidgetSwitch, render.WidgetConsole},
		{render.WidgetButton},
	}
	if diff := cmp.Diff(want, kinds(form.Rows())); diff != "" {
		t.Fatalf("row layout mismatch (-want +got):\n%s", diff)
	}

	back, ok := form.Back()
	if !ok {
		t.Fatalf("expected inline form to carry a Back affordance")
	}
	if back.Key != schema.ButtonStop || back.Action != render.ActionStop {
		t.Fatalf("unexpected back widget: %+v", back)
	}
}

func TestRender_EmptyRowsPreserved(t *testing.T) {
	doc := schema.Document{ID: "1", Fields: [][]schema.Field{{}, {{Key: "a", Type: schema.FieldText}}}}
	form := render.Render(doc, render.Dialog, nil)

	if got := len(form.Rows()); got != 2 {
		t.Fatalf("expected 2 rows, got %d", got)
	}
	if _, ok := form.Back(); ok {
		t.Fatalf("dialog must not carry a Back affordance")
	}
}

func TestRender_ConsoleStripsANSI(t *testing.T) {
	form := render.Render(loginDoc(), render.Inline, nil)
	console := form.Rows()[2].Widgets[2]

	if console.Text != "red" {
		t.Fatalf("expected stripped console text, got %q", console.Text)
	}
	if !strings.Contains(console.Value, "\x1b[31m") {
		t.Fatalf("expected raw console value to keep escapes, got %q", console.Value)
	}
}

func TestRender_FallbackForMalformedFields(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	doc := schema.New("f", "Broken", "",
		schema.Row(
			schema.Field{Key: "ok", Type: schema.FieldText},
			schema.Field{Key: "slider", Type: "Slider"},
		),
		schema.Row(
			schema.Field{Key: "pick", Type: schema.FieldSelect},
			schema.Field{Key: "ok", Type: schema.FieldEmail},
		),
	)
	form := render.Render(doc, render.Inline, nil, render.WithLogger(logger))

	want := [][]render.WidgetKind{
		{render.WidgetInput, render.WidgetFallback},
		{render.WidgetFallback, render.WidgetFallback},
	}
	if diff := cmp.Diff(want, kinds(form.Rows())); diff != "" {
		t.Fatalf("row layout mismatch (-want +got):\n%s", diff)
	}

	problems := form.Problems()
	if len(problems) != 3 {
		t.Fatalf("expected 3 problems, got %d", len(problems))
	}
	for _, p := range problems {
		if !p.Disabled || p.Problem == "" {
			t.Fatalf("fallback must be disabled with a problem: %+v", p)
		}
	}
	if got := strings.Count(logs.String(), "form field rendered as fallback"); got != 3 {
		t.Fatalf("expected 3 warn lines, got %d:\n%s", got, logs.String())
	}
	if diff := cmp.Diff(map[string]string{"ok": ""}, form.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_SnapshotDefaults(t *testing.T) {
	form := render.Render(loginDoc(), render.Inline, nil)

	want := map[string]string{
		"name":  "",
		"port":  "80",
		"proto": "tcp",
		"on":    "false",
	}
	if diff := cmp.Diff(want, form.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_EditAndSnapshot(t *testing.T) {
	form := render.Render(loginDoc(), render.Inline, nil)

	steps := []struct {
		name string
		run  func() error
	}{
		{"name", func() error { return form.SetValue("name", "alice") }},
		{"proto", func() error { return form.SetValue("proto", "udp") }},
		{"tags b", func() error { return form.Toggle("tags", "b") }},
		{"tags a", func() error { return form.Toggle("tags", "a") }},
		{"mode", func() error { return form.Toggle("mode", "y") }},
		{"on", func() error { return form.Toggle("on", "") }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
	}

	want := map[string]string{
		"name":  "alice",
		"port":  "80",
		"proto": "udp",
		"tags":  "a,b",
		"mode":  "y",
		"on":    "true",
	}
	if diff := cmp.Diff(want, form.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_SetValueErrors(t *testing.T) {
	doc := loginDoc()
	doc.Fields = append(doc.Fields, schema.Row(schema.Field{Key: "ro", Type: schema.FieldText, ReadOnly: true}))
	form := render.Render(doc, render.Inline, nil)

	cases := []struct {
		key, value string
		want       error
	}{
		{"missing", "x", render.ErrUnknownWidget},
		{"log", "x", render.ErrNotEditable},
		{"Submit", "x", render.ErrNotEditable},
		{"ro", "x", render.ErrReadOnly},
		{"proto", "icmp", render.ErrInvalidChoice},
		{"tags", "a,z", render.ErrInvalidChoice},
		{"on", "yes", render.ErrInvalidChoice},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			if err := form.SetValue(tc.key, tc.value); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestForm_Validate(t *testing.T) {
	form := render.Render(loginDoc(), render.Inline, nil)
	if err := form.SetValue("port", "8o"); err != nil {
		t.Fatalf("set port: %v", err)
	}

	want := map[string]string{"name": "required", "port": "digits only"}
	if diff := cmp.Diff(want, form.Validate()); diff != "" {
		t.Fatalf("problems mismatch (-want +got):\n%s", diff)
	}

	_ = form.SetValue("name", "bob")
	_ = form.SetValue("port", "8080")
	if problems := form.Validate(); problems != nil {
		t.Fatalf("expected valid form, got %v", problems)
	}
}

func TestForm_PressEmitsSnapshot(t *testing.T) {
	rec := &recorder{}
	form := render.Render(loginDoc(), render.Inline, rec.on)
	_ = form.SetValue("name", "alice")

	if err := form.Press(schema.ButtonSubmit); err != nil {
		t.Fatalf("press: %v", err)
	}
	if len(rec.actions) != 1 {
		t.Fatalf("expected one action, got %d", len(rec.actions))
	}
	got := rec.actions[0]
	if got.Kind != render.ActionSubmit || got.Key != schema.ButtonSubmit || got.FormID != "e1" {
		t.Fatalf("unexpected action: %+v", got)
	}
	if got.Data["name"] != "alice" {
		t.Fatalf("expected name in snapshot, got %v", got.Data)
	}
	if form.Detached() {
		t.Fatalf("inline press must not detach the form")
	}

	if err := form.Press(schema.ButtonStop); err != nil {
		t.Fatalf("press back: %v", err)
	}
	if rec.actions[1].Kind != render.ActionStop || rec.actions[1].Key != schema.ButtonStop {
		t.Fatalf("unexpected back action: %+v", rec.actions[1])
	}
}

func TestForm_LegacyButtonGroup(t *testing.T) {
	doc := schema.Document{ID: "2", Buttons: []string{"Cancel", "Submit", "Retry"}}
	rec := &recorder{}
	form := render.Render(doc, render.Inline, rec.on)

	type view struct {
		Key     string
		Action  render.ActionKind
		Primary bool
	}
	var got []view
	for _, b := range form.Buttons() {
		got = append(got, view{b.Key, b.Action, b.Primary})
	}
	want := []view{
		{"Cancel", render.ActionCancel, false},
		{"Submit", render.ActionSubmit, true},
		{"Retry", render.ActionSubmit, false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("button group mismatch (-want +got):\n%s", diff)
	}

	if err := form.Press("Cancel"); err != nil {
		t.Fatalf("press cancel: %v", err)
	}
	if rec.actions[0].Kind != render.ActionCancel {
		t.Fatalf("expected cancel action, got %+v", rec.actions[0])
	}
}

func TestForm_DialogDismissExactlyOnce(t *testing.T) {
	rec := &recorder{}
	form := render.Render(schema.Message("Hi", "hello"), render.Dialog, rec.on)

	if err := form.Dismiss(); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if err := form.Dismiss(); !errors.Is(err, render.ErrDetached) {
		t.Fatalf("expected ErrDetached on second dismiss, got %v", err)
	}
	if err := form.Press(schema.ButtonDialogOk); !errors.Is(err, render.ErrDetached) {
		t.Fatalf("expected ErrDetached after dismiss, got %v", err)
	}

	want := []render.Action{{
		Kind:    render.ActionClose,
		Key:     schema.ButtonDialogClose,
		FormID:  "message",
		Surface: render.Dialog,
		Data:    map[string]string{},
	}}
	if diff := cmp.Diff(want, rec.actions); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_DialogPressHidesWithoutClose(t *testing.T) {
	rec := &recorder{}
	form := render.Render(schema.Message("Hi", "hello"), render.Dialog, rec.on)

	if err := form.Press(schema.ButtonDialogOk); err != nil {
		t.Fatalf("press: %v", err)
	}
	if err := form.Dismiss(); !errors.Is(err, render.ErrDetached) {
		t.Fatalf("expected ErrDetached, got %v", err)
	}
	if len(rec.actions) != 1 || rec.actions[0].Key != schema.ButtonDialogOk {
		t.Fatalf("expected a single OkDialog action, got %+v", rec.actions)
	}
}

func TestForm_InlineDismissRejected(t *testing.T) {
	form := render.Render(loginDoc(), render.Inline, nil)
	if err := form.Dismiss(); !errors.Is(err, render.ErrNotDialog) {
		t.Fatalf("expected ErrNotDialog, got %v", err)
	}
}

func TestForm_BackIgnoresDocumentStopButtons(t *testing.T) {
	doc := schema.New("1", "Tunnel", "",
		schema.Row(schema.Button(schema.ButtonStop, "Stop tunnel")),
	)
	doc.Buttons = []string{"Start", schema.ButtonStop}

	rec := &recorder{}
	form := render.Render(doc, render.Inline, rec.on)
	back, ok := form.Back()
	if !ok {
		t.Fatalf("expected Back affordance")
	}

	if err := form.PressBack(); err != nil {
		t.Fatalf("PressBack: %v", err)
	}
	if err := form.PressWidget(back); err != nil {
		t.Fatalf("PressWidget(back): %v", err)
	}
	if err := form.Press(schema.ButtonStop); err != nil {
		t.Fatalf("Press: %v", err)
	}

	got := make([]render.ActionKind, 0, len(rec.actions))
	for _, a := range rec.actions {
		if a.Key != schema.ButtonStop {
			t.Fatalf("unexpected key %q", a.Key)
		}
		got = append(got, a.Kind)
	}
	want := []render.ActionKind{render.ActionStop, render.ActionStop, render.ActionSubmit}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_PressBackOnDialog(t *testing.T) {
	form := render.Render(loginDoc(), render.Dialog, nil)
	if err := form.PressBack(); !errors.Is(err, render.ErrUnknownWidget) {
		t.Fatalf("expected ErrUnknownWidget, got %v", err)
	}
}
