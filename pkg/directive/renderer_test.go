package directive

import (
	"testing"

	"github.com/goliatone/go-contractgen/pkg/model"
)

func mustNumber(t *testing.T, raw string) model.Value {
	t.Helper()
	v, err := model.NumberLiteral(raw)
	if err != nil {
		t.Fatalf("NumberLiteral(%q): %v", raw, err)
	}
	return v
}

func TestRenderDirectives(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		data model.FormData
		want string
	}{
		{
			name: "substitution",
			text: "Hello {{name}}",
			data: model.FormData{"name": model.String("World")},
			want: "Hello World",
		},
		{
			name: "unknown placeholder kept",
			text: "{{missing}} and {{name}}",
			data: model.FormData{"name": model.String("x")},
			want: "{{missing}} and x",
		},
		{
			name: "null renders empty",
			text: "[{{note}}]",
			data: model.FormData{"note": model.Null()},
			want: "[]",
		},
		{
			name: "if true branch trimmed",
			text: "A{{#if agreed}} yes {{else}} no {{/if}}B",
			data: model.FormData{"agreed": model.Bool(true)},
			want: "AyesB",
		},
		{
			name: "if else branch",
			text: "A{{#if agreed}} yes {{else}} no {{/if}}B",
			data: model.FormData{"agreed": model.Bool(false)},
			want: "AnoB",
		},
		{
			name: "if without else drops body",
			text: "X{{#if note}}Note: {{note}}{{/if}}Y",
			data: model.FormData{"note": model.String("")},
			want: "XY",
		},
		{
			name: "if on missing key is false",
			text: "X{{#if note}}Note{{/if}}Y",
			data: model.FormData{"other": model.String("v")},
			want: "XY",
		},
		{
			name: "eq keeps matching body",
			text: "{{#eq schedule 'monthly'}}M{{/eq}}{{#eq schedule \"full\"}}F{{/eq}}",
			data: model.FormData{"schedule": model.String("monthly")},
			want: "M",
		},
		{
			name: "eq body kept verbatim",
			text: "[{{#eq schedule 'full'}}  once  {{/eq}}]",
			data: model.FormData{"schedule": model.String("full")},
			want: "[  once  ]",
		},
		{
			name: "eq compares booleans as lowercase true",
			text: "{{#eq agreed 'true'}}Y{{/eq}}",
			data: model.FormData{"agreed": model.Bool(true)},
			want: "Y",
		},
		{
			name: "eq does not match capitalised True",
			text: "{{#eq agreed 'True'}}Y{{/eq}}",
			data: model.FormData{"agreed": model.Bool(true)},
			want: "",
		},
		{
			name: "eq compares present null as empty not None",
			text: "{{#eq note ''}}empty{{/eq}}{{#eq note 'None'}}none{{/eq}}",
			data: model.FormData{"note": model.Null()},
			want: "empty",
		},
		{
			name: "number literal rendered as submitted",
			text: "{{amount}}",
			data: model.FormData{"amount": mustNumber(t, "1e5")},
			want: "1e5",
		},
		{
			name: "eq compares raw value not mapped text",
			text: "{{payment_schedule}}|{{#eq payment_schedule 'monthly'}}ok{{/eq}}",
			data: model.FormData{"payment_schedule": model.String("monthly")},
			want: "щомісячно рівними частинами|ok",
		},
		{
			name: "if blocks do not nest",
			text: "{{#if a}}1{{#if b}}2{{/if}}3{{/if}}",
			data: model.FormData{"a": model.Bool(true), "b": model.Bool(false)},
			want: "1{{#if b}}23{{/if}}",
		},
		{
			name: "unclosed block stays literal",
			text: "{{#if a}}text",
			data: model.FormData{"a": model.Bool(true)},
			want: "{{#if a}}text",
		},
		{
			name: "substituted text is not rescanned",
			text: "{{a}}",
			data: model.FormData{"a": model.String("{{b}}"), "b": model.String("x")},
			want: "{{b}}",
		},
		{
			name: "boolean labels",
			text: "{{agreed}}/{{declined}}",
			data: model.FormData{"agreed": model.Bool(true), "declined": model.Bool(false)},
			want: "так/ні",
		},
		{
			name: "unmapped enumeration value",
			text: "{{payment_method}}",
			data: model.FormData{"payment_method": model.String("crypto")},
			want: "crypto",
		},
		{
			name: "empty data leaves text alone",
			text: "{{a}} {{#if a}}x{{else}}y{{/if}}",
			data: nil,
			want: "{{a}} y",
		},
	}

	for _, tc := range cases {
		if got := Render(tc.text, tc.data); got != tc.want {
			t.Fatalf("%s: Render = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRenderNumbersKeepLiteralText(t *testing.T) {
	t.Parallel()

	data := model.FormData{
		"loan_amount":   model.Number(50000),
		"interest_rate": mustNumber(t, "12.50"),
	}
	got := Render("{{loan_amount}} грн, {{interest_rate}}%", data)
	if want := "50000 грн, 12.50%"; got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRendererOptions(t *testing.T) {
	t.Parallel()

	data := model.FormData{
		"agreed":         model.Bool(true),
		"payment_method": model.String("card"),
		"tier":           model.String("gold"),
	}

	r := New(
		WithBoolLabels(BoolLabels{True: "yes", False: "no"}),
		WithValueMapping("tier", map[string]string{"gold": "Gold plan"}),
	)
	if got, want := r.Render("{{agreed}} {{payment_method}} {{tier}}", data), "yes картка Gold plan"; got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}

	plain := New(WithoutValueMappings())
	if got, want := plain.Render("{{payment_method}}", data), "card"; got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	r := New()
	if got := r.Display("payment_schedule", model.String("quarterly")); got != "щоквартально рівними частинами" {
		t.Fatalf("unexpected display %q", got)
	}
	if got := r.Display("other", model.String("quarterly")); got != "quarterly" {
		t.Fatalf("mappings are keyed by field, got %q", got)
	}
}
