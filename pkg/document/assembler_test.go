package document

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/testsupport"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

func newAssembler(opts ...Option) *Assembler {
	base := []Option{
		WithClock(testsupport.Clock()),
		WithIDGenerator(func() string { return "doc-1" }),
	}
	return New(append(base, opts...)...)
}

func TestGenerateLoanContract(t *testing.T) {
	t.Parallel()

	tpl := testsupport.LoanTemplate()
	doc, err := newAssembler().Generate(tpl, model.FormSubmission{
		ContractType: "loan_contract",
		FormData:     testsupport.LoanFormData(),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	golden := filepath.Join("testdata", "loan_contract.golden.md")
	if testsupport.WriteMaybeGolden(t, golden, []byte(doc.Content)) {
		return
	}
	want := string(testsupport.MustReadGolden(t, golden))
	if diff := cmp.Diff(want, doc.Content); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}

	wantDoc := model.RenderedDocument{
		ID:           "doc-1",
		ContractType: "loan_contract",
		Title:        "Договір позики",
		Content:      want,
		Digest:       Digest(want),
		GeneratedAt:  testsupport.Now,
	}
	if diff := cmp.Diff(wantDoc, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateSectionOrderAndSignatures(t *testing.T) {
	t.Parallel()

	tpl := testsupport.LoanTemplate()
	doc, err := newAssembler().Generate(tpl, model.FormSubmission{FormData: testsupport.LoanFormData()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc.ContractType != tpl.ID {
		t.Fatalf("expected contract type to default to the template id, got %q", doc.ContractType)
	}

	last := -1
	for _, section := range tpl.Body.Sections {
		idx := strings.Index(doc.Content, "## "+section.Title)
		if idx <= last {
			t.Fatalf("section %q out of order or missing", section.Title)
		}
		last = idx
	}
	if idx := strings.Index(doc.Content, "## ПІДПИСИ"); idx <= last {
		t.Fatalf("signatures must follow the sections")
	}
}

func TestGenerateRejectsInvalidSubmission(t *testing.T) {
	t.Parallel()

	data := testsupport.LoanFormData()
	data["loan_amount"] = model.Number(999)

	doc, err := newAssembler().Generate(testsupport.LoanTemplate(), model.FormSubmission{FormData: data})
	errs, ok := validation.AsErrors(err)
	if !ok {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if errs.Len() != 1 || errs.Fields[0].Field != "loan_amount" || errs.Fields[0].Kind != validation.KindOutOfRange {
		t.Fatalf("expected exactly one loan_amount error, got %#v", errs.Fields)
	}
	if diff := cmp.Diff(model.RenderedDocument{}, doc); diff != "" {
		t.Fatalf("no document should be produced (-want +got):\n%s", diff)
	}
}

func TestGenerateConditionalFieldRequiredWhenActive(t *testing.T) {
	t.Parallel()

	data := testsupport.LoanFormData()
	data["collateral_required"] = model.Bool(true)

	_, err := newAssembler().Generate(testsupport.LoanTemplate(), model.FormSubmission{FormData: data})
	errs, ok := validation.AsErrors(err)
	if !ok || !errs.Has("collateral_description") {
		t.Fatalf("expected collateral_description to be required, got %v", err)
	}

	data["collateral_description"] = model.String("Автомобіль Toyota Camry 2020")
	doc, err := newAssembler().Generate(testsupport.LoanTemplate(), model.FormSubmission{FormData: data})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(doc.Content, "Забезпечення: так.Автомобіль Toyota Camry 2020") {
		t.Fatalf("expected collateral block in content:\n%s", doc.Content)
	}
}

func TestRenderTitleFallbackAndInjectedKeysWin(t *testing.T) {
	t.Parallel()

	tpl := model.ContractTemplate{
		ID:    "memo",
		Title: "Memo",
		Body: model.TemplateBody{
			Sections: []model.Section{{Title: "Date", Content: "{{current_date_iso}} {{current_date}}"}},
		},
	}
	doc, err := newAssembler(WithSignaturesHeading("SIGNATURES")).Generate(tpl, model.FormSubmission{
		FormData: model.FormData{"current_date": model.String("spoofed")},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := "**Memo**\n\n## Date\n2026-10-15 15.10.2026\n"
	if diff := cmp.Diff(want, doc.Content); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestLongDateAndDigest(t *testing.T) {
	t.Parallel()

	if got := LongDate(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)); got != "1 січня 2026 р." {
		t.Fatalf("unexpected long date %q", got)
	}
	if got := Digest(""); got != "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("unexpected digest %q", got)
	}
}
