package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-contractgen/pkg/directive"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

// Keys injected into the render data at generation time.
const (
	KeyCurrentDate     = "current_date"
	KeyCurrentDateISO  = "current_date_iso"
	KeyCurrentDateLong = "current_date_long"
)

const (
	defaultSignaturesHeading = "ПІДПИСИ"
	shortDateLayout          = "02.01.2006"
)

// genitive month names used by the long date form ("15 жовтня 2026 р.").
var ukrainianMonths = [...]string{
	"січня", "лютого", "березня", "квітня", "травня", "червня",
	"липня", "серпня", "вересня", "жовтня", "листопада", "грудня",
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithValidator overrides the validator run before rendering.
func WithValidator(v *validation.Validator) Option {
	return func(a *Assembler) {
		if v != nil {
			a.validator = v
		}
	}
}

// WithRenderer overrides the directive renderer.
func WithRenderer(r *directive.Renderer) Option {
	return func(a *Assembler) {
		if r != nil {
			a.renderer = r
		}
	}
}

// WithClock overrides the time source for injected dates and GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithSignaturesHeading overrides the heading printed above signatures.
func WithSignaturesHeading(heading string) Option {
	return func(a *Assembler) {
		a.signaturesHeading = heading
	}
}

// WithIDGenerator overrides how document ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(a *Assembler) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// Assembler validates a submission against a template and, when every field
// passes, renders the contract text. It keeps no per-call state.
type Assembler struct {
	validator         *validation.Validator
	renderer          *directive.Renderer
	now               func() time.Time
	newID             func() string
	signaturesHeading string
}

// New constructs an Assembler. The validator and the assembler share the same
// clock unless either is overridden.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		renderer:          directive.New(),
		now:               time.Now,
		newID:             func() string { return uuid.NewString() },
		signaturesHeading: defaultSignaturesHeading,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.validator == nil {
		a.validator = validation.New(validation.WithClock(a.now))
	}
	return a
}

// Generate validates submission against tpl and renders the document. Any
// failing field aborts generation: the returned error is a *validation.Errors
// holding every failure and no document is produced.
func (a *Assembler) Generate(tpl model.ContractTemplate, submission model.FormSubmission) (model.RenderedDocument, error) {
	if err := a.validator.ValidateForm(tpl, submission.FormData); err != nil {
		return model.RenderedDocument{}, err
	}

	now := a.now()
	data := a.renderData(submission.FormData, now)
	content := a.Render(tpl, data)

	contractType := submission.ContractType
	if contractType == "" {
		contractType = tpl.ID
	}

	return model.RenderedDocument{
		ID:           a.newID(),
		ContractType: contractType,
		Title:        tpl.Title,
		Content:      content,
		Digest:       Digest(content),
		GeneratedAt:  now,
	}, nil
}

// Render assembles the document text without validating. data should already
// carry any injected keys.
func (a *Assembler) Render(tpl model.ContractTemplate, data model.FormData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s**\n", tpl.DocumentTitle())

	for _, section := range tpl.Body.Sections {
		fmt.Fprintf(&b, "\n## %s\n", section.Title)
		b.WriteString(a.renderer.Render(section.Content, data))
		b.WriteString("\n")
	}

	if len(tpl.Body.Signatures) > 0 {
		fmt.Fprintf(&b, "\n## %s\n", a.signaturesHeading)
		for _, sig := range tpl.Body.Signatures {
			party := a.renderer.Render(sig.Party, data)
			line := a.renderer.Render(sig.SignatureLine, data)
			fmt.Fprintf(&b, "%s: %s\n", party, line)
		}
	}

	if tpl.Body.Footer != "" {
		b.WriteString("\n---\n")
		b.WriteString(a.renderer.Render(tpl.Body.Footer, data))
	}

	return b.String()
}

// renderData copies the submitted values and adds the generation dates. The
// injected keys win over submitted ones.
func (a *Assembler) renderData(data model.FormData, now time.Time) model.FormData {
	out := data.Clone()
	out[KeyCurrentDate] = model.String(now.Format(shortDateLayout))
	out[KeyCurrentDateISO] = model.String(now.Format(model.DateLayout))
	out[KeyCurrentDateLong] = model.String(LongDate(now))
	return out
}

// LongDate formats t as "15 жовтня 2026 р.".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d р.", t.Day(), ukrainianMonths[t.Month()-1], t.Year())
}

// Digest returns the sha256 content digest in "sha256:<hex>" form.
func Digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "sha256:" + hex.EncodeToString(sum[:])
}
