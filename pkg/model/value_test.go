package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestDecodeFormDataKeepsKindsAndNumberText(t *testing.T) {
	t.Parallel()

	data, err := DecodeFormData([]byte(`{
		"name": "Іванов",
		"amount": 50000,
		"rate": 12.50,
		"agreed": false,
		"note": null
	}`))
	if err != nil {
		t.Fatalf("DecodeFormData: %v", err)
	}

	kinds := map[string]Kind{}
	text := map[string]string{}
	for _, key := range data.Keys() {
		kinds[key] = data[key].Kind()
		text[key] = data[key].String()
	}

	wantKinds := map[string]Kind{
		"name":   KindString,
		"amount": KindNumber,
		"rate":   KindNumber,
		"agreed": KindBool,
		"note":   KindNull,
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}

	wantText := map[string]string{
		"name":   "Іванов",
		"amount": "50000",
		"rate":   "12.50",
		"agreed": "false",
		"note":   "",
	}
	if diff := cmp.Diff(wantText, text); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
	if !data.Has("note") {
		t.Fatalf("expected explicit null to keep its key")
	}
}

func TestDecodeFormDataRejectsNestedValues(t *testing.T) {
	t.Parallel()

	if _, err := DecodeFormData([]byte(`{"parties": ["a", "b"]}`)); err == nil {
		t.Fatalf("expected arrays to be rejected")
	}
	if _, err := DecodeFormData([]byte(`{"party": {"name": "a"}}`)); err == nil {
		t.Fatalf("expected objects to be rejected")
	}
}

func TestDecodeSubmission(t *testing.T) {
	t.Parallel()

	sub, err := DecodeSubmission([]byte(`{"contract_type": "loan_contract", "form_data": {"loan_amount": 1000}}`))
	if err != nil {
		t.Fatalf("DecodeSubmission: %v", err)
	}
	if sub.ContractType != "loan_contract" {
		t.Fatalf("unexpected contract type %q", sub.ContractType)
	}
	if got, _ := sub.FormData.Get("loan_amount"); !got.Equal(Number(1000)) {
		t.Fatalf("unexpected loan_amount %v", got)
	}

	empty, err := DecodeSubmission([]byte(`{"contract_type": "nda_contract"}`))
	if err != nil {
		t.Fatalf("DecodeSubmission: %v", err)
	}
	if empty.FormData == nil {
		t.Fatalf("expected empty form data map")
	}
}

func TestValueYAMLDecoding(t *testing.T) {
	t.Parallel()

	var data FormData
	err := yaml.Unmarshal([]byte(`
name: Петров
amount: 1500
ratio: 0.5
agreed: true
return_date: 2026-12-31
missing: ~
`), &data)
	if err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}

	got := map[string]string{}
	for key, value := range data {
		got[key] = value.Kind().String() + ":" + value.String()
	}
	want := map[string]string{
		"name":        "string:Петров",
		"amount":      "number:1500",
		"ratio":       "number:0.5",
		"agreed":      "boolean:true",
		"return_date": "string:2026-12-31",
		"missing":     "null:",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("yaml values mismatch (-want +got):\n%s", diff)
	}
}

func TestValueEqualAndTruthy(t *testing.T) {
	t.Parallel()

	lit, err := NumberLiteral("1.0")
	if err != nil {
		t.Fatalf("NumberLiteral: %v", err)
	}

	cases := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"numbers by value", Number(1), lit, true},
		{"bool vs string", Bool(true), String("true"), false},
		{"number vs string", Number(3), String("3"), false},
		{"nulls", Null(), Null(), true},
		{"dates ignore clock", Date(time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)), Date(time.Date(2026, 1, 2, 23, 0, 0, 0, time.UTC)), true},
	}
	for _, tc := range cases {
		if got := tc.a.Equal(tc.b); got != tc.equal {
			t.Fatalf("%s: Equal = %v, want %v", tc.name, got, tc.equal)
		}
	}

	truthy := map[string]bool{
		"null":       Null().Truthy(),
		"empty":      String("").Truthy(),
		"whitespace": String(" ").Truthy(),
		"zero":       Number(0).Truthy(),
		"false":      Bool(false).Truthy(),
		"text":       String("x").Truthy(),
	}
	want := map[string]bool{
		"null":       false,
		"empty":      false,
		"whitespace": true,
		"zero":       false,
		"false":      false,
		"text":       true,
	}
	if diff := cmp.Diff(want, truthy); diff != "" {
		t.Fatalf("truthiness mismatch (-want +got):\n%s", diff)
	}
}

func TestFromAny(t *testing.T) {
	t.Parallel()

	v, err := FromAny(42)
	if err != nil {
		t.Fatalf("FromAny: %v", err)
	}
	if v.Kind() != KindNumber || v.String() != "42" {
		t.Fatalf("unexpected int conversion %v (%s)", v, v.Kind())
	}

	if _, err := FromAny([]string{"a"}); err == nil {
		t.Fatalf("expected slices to be rejected")
	}

	d := MustFromAny(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	if d.Kind() != KindDate || d.String() != "2026-03-04" {
		t.Fatalf("unexpected date conversion %v", d)
	}
}

func TestValueMarshalJSON(t *testing.T) {
	t.Parallel()

	data := FormData{
		"amount": MustFromAny(50000),
		"agreed": Bool(true),
		"note":   Null(),
		"name":   String("a\"b"),
	}
	payload, err := data["amount"].MarshalJSON()
	if err != nil || string(payload) != "50000" {
		t.Fatalf("amount: %s %v", payload, err)
	}
	payload, _ = data["agreed"].MarshalJSON()
	if string(payload) != "true" {
		t.Fatalf("agreed: %s", payload)
	}
	payload, _ = data["note"].MarshalJSON()
	if string(payload) != "null" {
		t.Fatalf("note: %s", payload)
	}
	payload, _ = data["name"].MarshalJSON()
	if string(payload) != `"a\"b"` {
		t.Fatalf("name: %s", payload)
	}
}
