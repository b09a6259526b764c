package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-contractgen/pkg/directive"
	"github.com/goliatone/go-contractgen/pkg/document"
	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/templates"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

const defaultBatchLimit = 8

// Option customises the service configuration.
type Option func(*Service)

// WithLogger injects a zap logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source shared by validation, rendering and
// health reports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDirectiveOptions configures the directive renderer (bool labels, value
// mappings).
func WithDirectiveOptions(opts ...directive.Option) Option {
	return func(s *Service) {
		s.directiveOpts = append(s.directiveOpts, opts...)
	}
}

// WithDocumentOptions forwards options to the document assembler.
func WithDocumentOptions(opts ...document.Option) Option {
	return func(s *Service) {
		s.documentOpts = append(s.documentOpts, opts...)
	}
}

// WithBatchLimit bounds how many submissions GenerateBatch renders at once.
func WithBatchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

// Service is the validation and generation surface keyed by contract type.
// It only reads its template store, so a single instance serves concurrent
// requests.
type Service struct {
	store         *templates.Store
	logger        *zap.Logger
	now           func() time.Time
	validator     *validation.Validator
	assembler     *document.Assembler
	directiveOpts []directive.Option
	documentOpts  []document.Option
	batchLimit    int
}

// New wires a Service around store. Lint warnings for the loaded templates are
// logged once here.
func New(store *templates.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("service: template store is required")
	}

	s := &Service{
		store:      store,
		logger:     zap.NewNop(),
		now:        time.Now,
		batchLimit: defaultBatchLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.validator = validation.New(validation.WithClock(s.now))
	docOpts := []document.Option{
		document.WithValidator(s.validator),
		document.WithRenderer(directive.New(s.directiveOpts...)),
		document.WithClock(s.now),
	}
	s.assembler = document.New(append(docOpts, s.documentOpts...)...)

	for _, tpl := range store.All() {
		for _, warning := range templates.Lint(tpl) {
			s.logger.Warn("template lint", zap.String("template", tpl.ID), zap.String("warning", warning))
		}
	}
	s.logger.Info("contract templates ready", zap.Int("count", store.Len()), zap.Strings("ids", store.IDs()))

	return s, nil
}

// Result is the outcome of a validation request.
type Result struct {
	Valid  bool                    `json:"valid"`
	Errors []validation.FieldError `json:"errors"`
}

// Health reports service status.
type Health struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	TemplatesLoaded int       `json:"templates_loaded"`
}

// Types lists the available contract types.
func (s *Service) Types() []templates.Summary {
	return s.store.Summaries()
}

// Template returns the definition for a contract type.
func (s *Service) Template(id string) (model.ContractTemplate, error) {
	return s.store.Get(id)
}

// Validate checks data against the template for id. The error is non-nil only
// for unknown contract types or broken visibility rules; field failures are
// reported in the Result.
func (s *Service) Validate(ctx context.Context, id string, data model.FormData) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	tpl, err := s.store.Get(id)
	if err != nil {
		s.logger.Debug("validate: unknown contract type", zap.String("template", id), kindField(err))
		return Result{}, err
	}

	result := Result{Valid: true, Errors: []validation.FieldError{}}
	if err := s.validator.ValidateForm(tpl, data); err != nil {
		errs, ok := validation.AsErrors(err)
		if !ok {
			s.logger.Error("validate: visibility rule failed", zap.String("template", id), zap.Error(err))
			return Result{}, err
		}
		result.Valid = false
		result.Errors = append(result.Errors, errs.Fields...)
	}

	s.logger.Debug("validate",
		zap.String("template", id),
		zap.Bool("valid", result.Valid),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// Generate validates data and renders the contract. Validation failures come
// back as *validation.Errors and no document is produced.
func (s *Service) Generate(ctx context.Context, id string, data model.FormData) (model.RenderedDocument, error) {
	if err := ctx.Err(); err != nil {
		return model.RenderedDocument{}, err
	}
	tpl, err := s.store.Get(id)
	if err != nil {
		s.logger.Debug("generate: unknown contract type", zap.String("template", id), kindField(err))
		return model.RenderedDocument{}, err
	}

	doc, err := s.assembler.Generate(tpl, model.FormSubmission{ContractType: tpl.ID, FormData: data})
	if err != nil {
		if errs, ok := validation.AsErrors(err); ok {
			s.logger.Info("generate: validation failed", zap.String("template", id), zap.Int("errors", errs.Len()), kindField(err))
			return model.RenderedDocument{}, err
		}
		s.logger.Error("generate failed", zap.String("template", id), zap.Error(err))
		return model.RenderedDocument{}, fmt.Errorf("service: generate %q: %w", id, err)
	}

	s.logger.Info("document generated",
		zap.String("template", id),
		zap.String("document", doc.ID),
		zap.String("digest", doc.Digest),
		zap.Int("bytes", len(doc.Content)),
	)
	return doc, nil
}

// IsValidationFailure reports whether err carries field validation errors
// (the 400-class outcome of Generate).
func IsValidationFailure(err error) bool {
	_, ok := validation.AsErrors(err)
	return ok
}

// Health reports the number of loaded templates.
func (s *Service) Health() Health {
	return Health{
		Status:          "healthy",
		Timestamp:       s.now(),
		TemplatesLoaded: s.store.Len(),
	}
}

// kindField tags a log entry with the failure kind of err.
func kindField(err error) zap.Field {
	kind, _ := validation.KindOf(err)
	return zap.String("kind", string(kind))
}
