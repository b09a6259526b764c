package contractgen

import (
	"context"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/service"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

// ContractTemplate aliases model.ContractTemplate for callers that only import
// the root package.
type ContractTemplate = model.ContractTemplate

// FormData aliases model.FormData.
type FormData = model.FormData

// RenderedDocument aliases model.RenderedDocument.
type RenderedDocument = model.RenderedDocument

// ValidationErrors aliases the aggregate returned when a submission fails
// validation.
type ValidationErrors = validation.Errors

// NewService builds a service over the built-in templates.
func NewService(options ...service.Option) (*service.Service, error) {
	store, err := DefaultTemplates()
	if err != nil {
		return nil, err
	}
	return service.New(store, options...)
}

// Generate validates data against the built-in template for contractType and
// renders the document. It is the simplest entry point for callers that just
// want contract text.
func Generate(ctx context.Context, contractType string, data FormData, options ...service.Option) (RenderedDocument, error) {
	svc, err := NewService(options...)
	if err != nil {
		return RenderedDocument{}, err
	}
	return svc.Generate(ctx, contractType, data)
}
