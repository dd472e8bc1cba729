package schema_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"

	"github.com/goliatone/go-corepanel/pkg/schema"
)

func TestDecode_RowsAndIDs(t *testing.T) {
	doc, err := schema.DecodeString(`{
		"id": 1,
		"title": "Login",
		"fields": [
			[{"key":"name","type":"Text","required":true}],
			[{"key":"mode","type":"Select","items":[{"value":"a","label":"A"}]},
			 {"key":"ok","type":"Button","label":"Go"}]
		],
		"buttons": ["Submit"]
	}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := schema.Document{
		ID:    "1",
		Title: "Login",
		Fields: [][]schema.Field{
			{{Key: "name", Type: schema.FieldText, Required: true}},
			{
				{Key: "mode", Type: schema.FieldSelect, Items: []schema.Item{{Value: "a", Label: "A"}}},
				{Key: "ok", Type: schema.FieldButton, Label: "Go"},
			},
		},
		Buttons: []string{"Submit"},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_StringID(t *testing.T) {
	doc, err := schema.DecodeString(`{"id":"abc","fields":[]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ID != "abc" {
		t.Fatalf("expected id abc, got %q", doc.ID)
	}
}

func TestDecode_Rejects(t *testing.T) {
	if _, err := schema.DecodeString("   "); !errors.Is(err, schema.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := schema.DecodeString(`[1,2]`); err == nil {
		t.Fatalf("expected error for non-object payload")
	}
	if _, err := schema.DecodeString(`{"id":{}}`); err == nil {
		t.Fatalf("expected error for object id")
	}
}

func TestFieldType_Classification(t *testing.T) {
	cases := []struct {
		typ        schema.FieldType
		valid      bool
		kind       string
		needsItems bool
	}{
		{schema.FieldText, true, "text", false},
		{schema.FieldInput, true, "text", false},
		{schema.FieldEmail, true, "email", false},
		{schema.FieldPassword, true, "password", false},
		{schema.FieldNumber, true, "number", false},
		{schema.FieldSelect, true, "", true},
		{schema.FieldCheckbox, true, "", true},
		{schema.FieldRadioButton, true, "", true},
		{schema.FieldSwitch, true, "", false},
		{schema.FieldButton, true, "", false},
		{schema.FieldType("Slider"), false, "", false},
		{schema.FieldType("text"), false, "", false},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			if got := tc.typ.Valid(); got != tc.valid {
				t.Fatalf("Valid() = %v, want %v", got, tc.valid)
			}
			if got := tc.typ.InputKind(); got != tc.kind {
				t.Fatalf("InputKind() = %q, want %q", got, tc.kind)
			}
			if got := tc.typ.NeedsItems(); got != tc.needsItems {
				t.Fatalf("NeedsItems() = %v, want %v", got, tc.needsItems)
			}
		})
	}
}

func TestDocumentValidate_AggregatesProblems(t *testing.T) {
	doc := schema.New("x", "t", "",
		schema.Row(
			schema.Field{Key: "a", Type: schema.FieldText},
			schema.Field{Key: "", Type: schema.FieldText},
		),
		schema.Row(
			schema.Field{Key: "a", Type: schema.FieldEmail},
			schema.Field{Key: "s", Type: schema.FieldSelect},
			schema.Field{Key: "u", Type: "Slider"},
		),
	)

	err := doc.Validate()
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected multierror, got %T (%v)", err, err)
	}

	var got []error
	for _, e := range merr.Errors {
		var fe *schema.FieldError
		if !errors.As(e, &fe) {
			t.Fatalf("expected FieldError, got %T", e)
		}
		got = append(got, fe.Err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", len(got), err)
	}
	wants := []error{schema.ErrMissingKey, schema.ErrDuplicateKey, schema.ErrMissingItems, schema.ErrUnknownType}
	for i, want := range wants {
		if !errors.Is(got[i], want) {
			t.Fatalf("problem %d: expected %v, got %v", i, want, got[i])
		}
	}
}

func TestDocumentValidate_Clean(t *testing.T) {
	doc := schema.Message("Hi", "hello")
	if err := doc.Validate(); err != nil {
		t.Fatalf("expected valid message document, got %v", err)
	}
}

func TestCheckValue(t *testing.T) {
	field := schema.Field{Key: "port", Type: schema.FieldText, Required: true, Validator: schema.ValidatorDigitsOnly}
	if got := field.CheckValue(""); got != "required" {
		t.Fatalf("expected required, got %q", got)
	}
	if got := field.CheckValue("12a"); got != "digits only" {
		t.Fatalf("expected digits only, got %q", got)
	}
	if got := field.CheckValue("443"); got != "" {
		t.Fatalf("expected no problem, got %q", got)
	}
}

func TestDocumentJSON_RoundTrip(t *testing.T) {
	doc := schema.New("7", "Settings", "desc",
		schema.Row(schema.Field{Key: "on", Type: schema.FieldSwitch, Value: "true"}),
		schema.Row(schema.Button(schema.ButtonSubmit, "Save")),
	)
	payload, err := doc.JSON()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := schema.DecodeString(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(doc, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
