package visibility

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// Evaluator decides whether a field is visible for a rule expression and the
// current form data.
type Evaluator interface {
	Eval(fieldID, rule string, ctx Context) (bool, error)
}

// Context carries the inputs an Evaluator reads. Data holds the submitted form
// values while Extras lets callers inject values that are not part of the form
// (feature flags, jurisdiction, locale), addressed as `extras.<key>`.
type Context struct {
	Data   model.FormData
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldID, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldID, rule string, ctx Context) (bool, error) {
	return fn(fieldID, rule, ctx)
}

// IsApplicable reports whether a field takes part in validation given its
// declared conditional.
//
// A field is skipped only when the controlling key is present in data and its
// value differs from the required value. When the controlling key is absent the
// field is still applicable, so a required conditional field with no answer for
// its controller is reported as missing. This mirrors the behaviour existing
// clients depend on and is kept as is.
func IsApplicable(field model.FieldSchema, data model.FormData) bool {
	cond := field.Conditional
	if cond == nil {
		return true
	}
	actual, ok := data.Get(cond.Field)
	if !ok {
		return true
	}
	return actual.Equal(cond.Value)
}

// Resolver combines the declared conditional with an optional visibleWhen
// expression evaluated through an Evaluator.
type Resolver struct {
	evaluator Evaluator
	extras    map[string]any
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithExtras exposes additional values to visibleWhen rules.
func WithExtras(extras map[string]any) ResolverOption {
	return func(r *Resolver) {
		if len(extras) == 0 {
			return
		}
		r.extras = make(map[string]any, len(extras))
		for key, value := range extras {
			r.extras[strings.TrimSpace(key)] = value
		}
	}
}

// NewResolver builds a Resolver. A nil evaluator disables visibleWhen rules.
func NewResolver(evaluator Evaluator, opts ...ResolverOption) *Resolver {
	r := &Resolver{evaluator: evaluator}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Applicable reports whether field should be validated and rendered for data.
// On evaluator failure the field stays applicable and the error is returned.
func (r *Resolver) Applicable(field model.FieldSchema, data model.FormData) (bool, error) {
	if !IsApplicable(field, data) {
		return false, nil
	}

	rule := strings.TrimSpace(field.VisibleWhen)
	if rule == "" || r == nil || r.evaluator == nil {
		return true, nil
	}

	ok, err := r.evaluator.Eval(field.ID, rule, Context{Data: data, Extras: r.extras})
	if err != nil {
		return true, fmt.Errorf("visibility: field %q: %w", field.ID, err)
	}
	return ok, nil
}
