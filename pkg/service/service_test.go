package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/templates"
	"github.com/goliatone/go-contractgen/pkg/testsupport"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()

	store := templates.MustNewStore(testsupport.LoanTemplate())
	base := []Option{
		WithClock(testsupport.Clock()),
		WithDocumentOptions(document.WithIDGenerator(func() string { return "doc" })),
	}
	svc, err := New(store, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected nil store to fail")
	}
}

func TestTypesAndTemplate(t *testing.T) {
	svc := newService(t)

	want := []templates.Summary{{ID: "loan_contract", Title: "Договір позики", Description: "Договір позики грошових коштів"}}
	if diff := cmp.Diff(want, svc.Types()); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.Template("loan_contract"); err != nil {
		t.Fatalf("Template: %v", err)
	}
	if _, err := svc.Template("rent_contract"); !errors.Is(err, templates.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	result, err := svc.Validate(ctx, "loan_contract", testsupport.LoanFormData())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if diff := cmp.Diff(Result{Valid: true, Errors: []validation.FieldError{}}, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	data := testsupport.LoanFormData()
	delete(data, "lender_name")
	data["return_date"] = model.String("2020-01-01")
	result, err = svc.Validate(ctx, "loan_contract", data)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := Result{Valid: false, Errors: []validation.FieldError{
		{Field: "lender_name", Kind: validation.KindRequiredFieldMissing, Message: "Field 'ПІБ позикодавця' is required"},
		{Field: "return_date", Kind: validation.KindNotFutureDate, Message: "Field 'Дата повернення' must be a future date"},
	}}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	_, err = svc.Validate(ctx, "unknown", nil)
	if !errors.Is(err, templates.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if kind, _ := validation.KindOf(err); kind != validation.KindTemplateNotFound {
		t.Fatalf("expected template_not_found kind, got %q", kind)
	}
}

func TestGenerate(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := newService(t, WithLogger(zap.New(core)))
	ctx := context.Background()

	doc, err := svc.Generate(ctx, "loan_contract", testsupport.LoanFormData())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc.ID != "doc" || doc.ContractType != "loan_contract" || doc.Digest != document.Digest(doc.Content) {
		t.Fatalf("unexpected document %#v", doc)
	}
	if logs.FilterMessage("document generated").Len() != 1 {
		t.Fatalf("expected a generation log entry, got %v", logs.All())
	}

	data := testsupport.LoanFormData()
	data["lender_phone"] = model.String("123")
	_, err = svc.Generate(ctx, "loan_contract", data)
	if !IsValidationFailure(err) {
		t.Fatalf("expected validation failure, got %v", err)
	}

	_, err = svc.Generate(ctx, "nda_contract", data)
	if !errors.Is(err, templates.ErrTemplateNotFound) || IsValidationFailure(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := svc.Generate(cancelled, "loan_contract", testsupport.LoanFormData()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestNewLogsLintWarnings(t *testing.T) {
	tpl := testsupport.LoanTemplate()
	tpl.Fields[len(tpl.Fields)-1].Conditional.Field = "ghost"

	core, logs := observer.New(zap.WarnLevel)
	if _, err := New(templates.MustNewStore(tpl), WithLogger(zap.New(core))); err != nil {
		t.Fatalf("New: %v", err)
	}
	if logs.FilterMessage("template lint").Len() != 1 {
		t.Fatalf("expected one lint warning, got %v", logs.All())
	}
}

func TestHealth(t *testing.T) {
	svc := newService(t)
	want := Health{Status: "healthy", Timestamp: testsupport.Now, TemplatesLoaded: 1}
	if diff := cmp.Diff(want, svc.Health()); diff != "" {
		t.Fatalf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateBatchKeepsInputOrder(t *testing.T) {
	svc := newService(t, WithBatchLimit(2))

	invalid := testsupport.LoanFormData()
	invalid["loan_amount"] = model.Number(1)

	subs := []model.FormSubmission{
		{ContractType: "loan_contract", FormData: testsupport.LoanFormData()},
		{ContractType: "loan_contract", FormData: invalid},
		{ContractType: "missing", FormData: testsupport.LoanFormData()},
		{ContractType: "loan_contract", FormData: testsupport.LoanFormData()},
	}
	results := svc.GenerateBatch(context.Background(), subs)
	if len(results) != len(subs) {
		t.Fatalf("expected %d results, got %d", len(subs), len(results))
	}
	for idx, res := range results {
		if res.Index != idx {
			t.Fatalf("result %d carries index %d", idx, res.Index)
		}
	}
	if results[0].Err != nil || results[3].Err != nil {
		t.Fatalf("expected valid submissions to render, got %v / %v", results[0].Err, results[3].Err)
	}
	if !IsValidationFailure(results[1].Err) {
		t.Fatalf("expected validation failure, got %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, templates.ErrTemplateNotFound) {
		t.Fatalf("expected not found, got %v", results[2].Err)
	}
	if results[0].Document.Content != results[3].Document.Content {
		t.Fatalf("identical submissions should render identical content")
	}
}
