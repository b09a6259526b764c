package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindRequiredFieldMissing Kind = "required_field_missing"
	KindWrongType            Kind = "wrong_type"
	KindOutOfRange           Kind = "out_of_range"
	KindPatternMismatch      Kind = "pattern_mismatch"
	KindNotANumber           Kind = "not_a_number"
	KindInvalidDate          Kind = "invalid_date"
	KindNotFutureDate        Kind = "not_future_date"
	KindInvalidPhone         Kind = "invalid_phone"
	KindInvalidEmail         Kind = "invalid_email"
	KindTemplateNotFound     Kind = "template_not_found"
)

// KindOf classifies err. Field errors (alone or inside *Errors, first field
// wins) report their own kind; any other error in the chain exposing
// Kind() Kind, such as an unknown contract type, reports that.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	var fe FieldError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	var kinded interface{ Kind() Kind }
	if errors.As(err, &kinded) {
		return kinded.Kind(), true
	}
	return "", false
}

// FieldError reports one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors aggregates every failing field of a form, in template field order.
type Errors struct {
	Fields []FieldError `json:"errors"`
}

func (e *Errors) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation: no errors"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Error())
	}
	return fmt.Sprintf("validation failed (%d): %s", len(e.Fields), strings.Join(parts, "; "))
}

// Unwrap exposes the individual field errors to errors.Is/As.
func (e *Errors) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, len(e.Fields))
	for _, field := range e.Fields {
		out = append(out, field)
	}
	return out
}

// Len returns the number of failing fields.
func (e *Errors) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Fields)
}

// Add appends a field error.
func (e *Errors) Add(err FieldError) {
	e.Fields = append(e.Fields, err)
}

// ByField groups messages by field id, trimming blanks and dropping
// duplicates while keeping order.
func (e *Errors) ByField() map[string][]string {
	if e.Len() == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, field := range e.Fields {
		msg := strings.TrimSpace(field.Message)
		if msg == "" {
			continue
		}
		if containsString(out[field.Field], msg) {
			continue
		}
		out[field.Field] = append(out[field.Field], msg)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Has reports whether the aggregate contains an error for field.
func (e *Errors) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, item := range e.Fields {
		if item.Field == field {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
