package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/validation"
	"github.com/goliatone/go-contractgen/pkg/visibility"
	"github.com/goliatone/go-contractgen/pkg/visibility/expr"
)

// Option configures a Filler.
type Option func(*Filler)

// WithDriver overrides the prompt driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithValidator overrides the validator answers are checked with.
func WithValidator(v *validation.Validator) Option {
	return func(f *Filler) {
		if v != nil {
			f.validator = v
		}
	}
}

// Filler walks a template's fields in order and asks for each applicable one,
// re-asking until the answer passes field validation.
type Filler struct {
	driver    Driver
	validator *validation.Validator
	resolver  *visibility.Resolver
}

// New constructs a Filler using the survey driver unless one is injected.
func New(opts ...Option) *Filler {
	f := &Filler{
		validator: validation.New(),
		resolver:  visibility.NewResolver(expr.New()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver()
	}
	return f
}

// Fill collects form data for tpl. Values in prefill are offered as defaults.
// Fields hidden by their conditional, given the answers so far, are not asked.
// Optional fields left blank stay absent from the result.
func (f *Filler) Fill(ctx context.Context, tpl model.ContractTemplate, prefill model.FormData) (model.FormData, error) {
	if ctx == nil {
		return nil, errors.New("prompt: context is required")
	}
	data := model.FormData{}

	for _, field := range tpl.Fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		applicable, err := f.resolver.Applicable(field, data)
		if err != nil {
			return nil, err
		}
		if !applicable {
			continue
		}

		def, _ := prefill.Get(field.ID)
		value, skip, err := f.ask(ctx, field, def)
		if err != nil {
			return nil, err
		}
		if !skip {
			data[field.ID] = value
		}
	}
	return data, nil
}

func (f *Filler) ask(ctx context.Context, field model.FieldSchema, def model.Value) (model.Value, bool, error) {
	label := field.DisplayLabel()
	if field.Required {
		label += " *"
	}

	for {
		value, err := f.read(ctx, field, label, def)
		if err != nil {
			return model.Value{}, false, err
		}
		if value.IsEmpty() && !field.Required {
			return model.Value{}, true, nil
		}
		if err := f.validator.Validate(field, value); err != nil {
			msg := err.Error()
			var fe validation.FieldError
			if errors.As(err, &fe) {
				msg = fe.Message
			}
			if infoErr := f.driver.Info(ctx, msg); infoErr != nil {
				return model.Value{}, false, infoErr
			}
			continue
		}
		return value, false, nil
	}
}

func (f *Filler) read(ctx context.Context, field model.FieldSchema, label string, def model.Value) (model.Value, error) {
	switch {
	case field.Type == model.FieldTypeBoolean:
		b, _ := def.Boolean()
		answer, err := f.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: b, Help: field.Help})
		if err != nil {
			return model.Value{}, err
		}
		return model.Bool(answer), nil

	case len(field.Options) > 0:
		labels := make([]string, len(field.Options))
		defIdx := -1
		for i, opt := range field.Options {
			labels[i] = field.OptionLabel(opt.Value)
			if opt.Value == def.String() {
				defIdx = i
			}
		}
		idx, err := f.driver.Select(ctx, SelectConfig{Message: label, Options: labels, DefaultIndex: defIdx, Help: field.Help})
		if err != nil {
			return model.Value{}, err
		}
		if idx < 0 || idx >= len(field.Options) {
			return model.Null(), nil
		}
		return model.String(field.Options[idx].Value), nil

	case field.Type == model.FieldTypeNumber || field.Type == model.FieldTypeMoney:
		answer, err := f.driver.Input(ctx, InputConfig{Message: label, Default: def.String(), Help: helpFor(field)})
		if err != nil {
			return model.Value{}, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return model.Null(), nil
		}
		if num, err := model.NumberLiteral(answer); err == nil {
			return num, nil
		}
		// Keep the raw text so the validator reports it as not a number.
		return model.String(answer), nil

	default:
		cfg := InputConfig{Message: label, Default: def.String(), Help: helpFor(field)}
		ask := f.driver.Input
		if field.Type == model.FieldTypeTextArea {
			ask = f.driver.Multiline
		}
		answer, err := ask(ctx, cfg)
		if err != nil {
			return model.Value{}, err
		}
		return model.String(strings.TrimSpace(answer)), nil
	}
}

func helpFor(field model.FieldSchema) string {
	parts := make([]string, 0, 2)
	if field.Help != "" {
		parts = append(parts, field.Help)
	}
	if field.Placeholder != "" {
		parts = append(parts, fmt.Sprintf("e.g. %s", field.Placeholder))
	} else if field.Type == model.FieldTypeDate {
		parts = append(parts, "format YYYY-MM-DD")
	}
	return strings.Join(parts, " | ")
}
