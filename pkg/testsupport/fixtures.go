package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// Now is the fixed instant fixtures are evaluated at: 15 October 2026, noon
// UTC.
var Now = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

// Clock returns a time source frozen at Now.
func Clock() func() time.Time {
	return func() time.Time { return Now }
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// LoanTemplate returns a loan contract definition covering every directive
// kind: substitution, if/else, eq, a conditional field, signatures and a
// footer.
func LoanTemplate() model.ContractTemplate {
	return model.ContractTemplate{
		ID:          "loan_contract",
		Title:       "Договір позики",
		Description: "Договір позики грошових коштів",
		Fields: []model.FieldSchema{
			{ID: "lender_name", Label: "ПІБ позикодавця", Type: model.FieldTypeText, Required: true,
				Validation: model.Rules{MinLength: intPtr(5), MaxLength: intPtr(100)}},
			{ID: "lender_passport", Label: "Паспорт позикодавця", Type: model.FieldTypeText, Required: true,
				Validation: model.Rules{Pattern: `[А-ЯІЇЄҐA-Z]{2}[0-9]{6}`}},
			{ID: "lender_phone", Label: "Телефон позикодавця", Type: model.FieldTypePhone, Required: true,
				Validation: model.Rules{Pattern: `\+?380[0-9]{9}`}},
			{ID: "borrower_name", Label: "ПІБ позичальника", Type: model.FieldTypeText, Required: true,
				Validation: model.Rules{MinLength: intPtr(5), MaxLength: intPtr(100)}},
			{ID: "loan_amount", Label: "Сума позики", Type: model.FieldTypeMoney, Required: true,
				Validation: model.Rules{Min: floatPtr(1000), Max: floatPtr(10000000)}},
			{ID: "interest_rate", Label: "Процентна ставка", Type: model.FieldTypeNumber, Required: false,
				Validation: model.Rules{Min: floatPtr(0), Max: floatPtr(100)}},
			{ID: "return_date", Label: "Дата повернення", Type: model.FieldTypeDate, Required: true,
				Validation: model.Rules{FutureDate: true}},
			{ID: "payment_schedule", Label: "Графік повернення", Type: model.FieldTypeSelect, Required: true,
				Options: []model.Option{
					{Value: "full", Label: "Одноразово"},
					{Value: "monthly", Label: "Щомісячно"},
					{Value: "quarterly", Label: "Щоквартально"},
				}},
			{ID: "collateral_required", Label: "Забезпечення", Type: model.FieldTypeBoolean, Required: false},
			{ID: "collateral_description", Label: "Опис забезпечення", Type: model.FieldTypeTextArea, Required: true,
				Conditional: &model.Conditional{Field: "collateral_required", Value: model.Bool(true)}},
		},
		Body: model.TemplateBody{
			Title: "ДОГОВІР ПОЗИКИ",
			Sections: []model.Section{
				{Title: "1. СТОРОНИ", Content: "{{lender_name}} та {{borrower_name}}, {{current_date}}"},
				{Title: "2. ПРЕДМЕТ", Content: "Сума {{loan_amount}} грн до {{return_date}}. {{#if interest_rate}}Ставка {{interest_rate}}%.{{else}}Без процентів.{{/if}}"},
				{Title: "3. ПОВЕРНЕННЯ", Content: "Графік: {{payment_schedule}}.{{#eq payment_schedule 'monthly'}} До 10 числа.{{/eq}}"},
				{Title: "4. ЗАБЕЗПЕЧЕННЯ", Content: "Забезпечення: {{collateral_required}}.{{#if collateral_required}} {{collateral_description}}{{/if}}"},
			},
			Signatures: []model.Signature{
				{Party: "Позикодавець", SignatureLine: "________ / {{lender_name}} /"},
				{Party: "Позичальник", SignatureLine: "________ / {{borrower_name}} /"},
			},
			Footer: "Складено {{current_date_long}}",
		},
	}
}

// LoanFormData returns a submission that passes LoanTemplate at Now.
func LoanFormData() model.FormData {
	return model.FormData{
		"lender_name":            model.String("Іванов Іван Іванович"),
		"lender_passport":        model.String("АМ123456"),
		"lender_phone":           model.String("+380501234567"),
		"borrower_name":          model.String("Петров Петро Петрович"),
		"loan_amount":            model.Number(50000),
		"interest_rate":          model.Number(12.5),
		"return_date":            model.String("2026-12-31"),
		"payment_schedule":       model.String("monthly"),
		"collateral_required":    model.Bool(false),
		"collateral_description": model.String(""),
	}
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}
