package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/visibility"
	"github.com/goliatone/go-contractgen/pkg/visibility/expr"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// dateLayouts lists the ISO-8601 shapes accepted for date fields. A trailing
// "Z" is rewritten to "+00:00" before parsing.
var dateLayouts = buildDateLayouts()

func buildDateLayouts() []string {
	layouts := []string{model.DateLayout}
	for _, sep := range []string{"T", " "} {
		for _, clock := range []string{"15", "15:04", "15:04:05", "15:04:05.999999999"} {
			layouts = append(layouts,
				model.DateLayout+sep+clock,
				model.DateLayout+sep+clock+"-07:00",
			)
		}
	}
	return layouts
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the time source used for future_date checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithResolver overrides the visibility resolver used by ValidateForm.
func WithResolver(resolver *visibility.Resolver) Option {
	return func(v *Validator) {
		if resolver != nil {
			v.resolver = resolver
		}
	}
}

// Validator checks submitted values against field schemas. It holds no
// per-request state and is safe for concurrent use.
type Validator struct {
	now      func() time.Time
	resolver *visibility.Resolver
	patterns sync.Map // pattern source -> *regexp.Regexp
}

// New constructs a Validator with the wall clock and the expression-backed
// visibility resolver.
func New(opts ...Option) *Validator {
	v := &Validator{
		now:      time.Now,
		resolver: visibility.NewResolver(expr.New()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// CompilePattern compiles a declared pattern so it only has to match from the
// start of the value, not the whole value.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("validation: invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Validate checks a single value. It returns nil or a FieldError.
func (v *Validator) Validate(field model.FieldSchema, value model.Value) error {
	if fe, failed := v.check(field, value); failed {
		return fe
	}
	return nil
}

// ValidateForm runs the visibility resolver and the field validator across
// every field of tpl in declared order. It returns *Errors listing every
// failing field, or nil. A non-*Errors error means a visibleWhen rule could
// not be evaluated.
func (v *Validator) ValidateForm(tpl model.ContractTemplate, data model.FormData) error {
	errs := &Errors{}
	for _, field := range tpl.Fields {
		applicable, err := v.resolver.Applicable(field, data)
		if err != nil {
			return fmt.Errorf("validation: template %q: %w", tpl.ID, err)
		}
		if !applicable {
			continue
		}
		value, _ := data.Get(field.ID)
		if fe, failed := v.check(field, value); failed {
			errs.Add(fe)
		}
	}
	if errs.Len() == 0 {
		return nil
	}
	return errs
}

// AsErrors extracts the field error aggregate from err.
func AsErrors(err error) (*Errors, bool) {
	var errs *Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

func (v *Validator) check(field model.FieldSchema, value model.Value) (FieldError, bool) {
	label := field.DisplayLabel()
	fail := func(kind Kind, format string, args ...any) (FieldError, bool) {
		return FieldError{
			Field:   field.ID,
			Kind:    kind,
			Message: fmt.Sprintf("Field '%s' ", label) + fmt.Sprintf(format, args...),
		}, true
	}

	if value.IsEmpty() {
		if field.Required {
			return fail(KindRequiredFieldMissing, "is required")
		}
		return FieldError{}, false
	}

	rules := field.Validation

	switch field.Type {
	case model.FieldTypeText:
		text, ok := value.Text()
		if !ok {
			return fail(KindWrongType, "must be text")
		}
		length := utf8.RuneCountInString(text)
		if rules.MinLength != nil && length < *rules.MinLength {
			return fail(KindOutOfRange, "must be at least %d characters", *rules.MinLength)
		}
		if rules.MaxLength != nil && length > *rules.MaxLength {
			return fail(KindOutOfRange, "must be no more than %d characters", *rules.MaxLength)
		}
		if rules.Pattern != "" && !v.matchPattern(rules.Pattern, text) {
			return fail(KindPatternMismatch, "format is invalid")
		}

	case model.FieldTypeNumber, model.FieldTypeMoney:
		num, ok := numeric(value)
		if !ok {
			return fail(KindNotANumber, "must be a valid number")
		}
		if rules.Min != nil && num < *rules.Min {
			return fail(KindOutOfRange, "must be at least %s", formatBound(*rules.Min))
		}
		if rules.Max != nil && num > *rules.Max {
			return fail(KindOutOfRange, "must be no more than %s", formatBound(*rules.Max))
		}

	case model.FieldTypeDate:
		date, ok := parseDate(value)
		if !ok {
			return fail(KindInvalidDate, "must be a valid date")
		}
		if rules.FutureDate && !civilAfter(date, v.now()) {
			return fail(KindNotFutureDate, "must be a future date")
		}

	case model.FieldTypePhone:
		text, ok := value.Text()
		if !ok {
			return fail(KindWrongType, "must be text")
		}
		if rules.Pattern != "" && !v.matchPattern(rules.Pattern, text) {
			return fail(KindInvalidPhone, "must be a valid phone number")
		}

	case model.FieldTypeEmail:
		text, ok := value.Text()
		if !ok || !emailPattern.MatchString(text) {
			return fail(KindInvalidEmail, "must be a valid email address")
		}

	default:
		// select, boolean, textarea and unknown tags carry no type rules.
	}

	return FieldError{}, false
}

// matchPattern reports a mismatch for patterns that do not compile; templates
// loaded through the templates package are checked up front.
func (v *Validator) matchPattern(pattern, text string) bool {
	if cached, ok := v.patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(text)
	}
	re, err := CompilePattern(pattern)
	if err != nil {
		return false
	}
	actual, _ := v.patterns.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp).MatchString(text)
}

func numeric(value model.Value) (float64, bool) {
	switch value.Kind() {
	case model.KindNumber:
		return value.Float()
	case model.KindString:
		text, _ := value.Text()
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseDate(value model.Value) (time.Time, bool) {
	if t, ok := value.Time(); ok {
		return t, true
	}
	text, ok := value.Text()
	if !ok {
		return time.Time{}, false
	}
	text = strings.ReplaceAll(text, "Z", "+00:00")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// civilAfter compares calendar dates: the date of t in its own offset against
// the date of now in now's location.
func civilAfter(t, now time.Time) bool {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	return time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).After(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}
