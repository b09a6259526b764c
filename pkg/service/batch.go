package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// BatchResult is the outcome for one submission of a batch.
type BatchResult struct {
	Index    int
	Document model.RenderedDocument
	Err      error
}

// GenerateBatch renders submissions concurrently, bounded by the batch limit.
// Results are returned in input order and one failing submission does not
// stop the others. Cancelling ctx stops submissions that have not started.
func (s *Service) GenerateBatch(ctx context.Context, submissions []model.FormSubmission) []BatchResult {
	results := make([]BatchResult, len(submissions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)
	for idx, sub := range submissions {
		g.Go(func() error {
			doc, err := s.Generate(gctx, sub.ContractType, sub.FormData)
			results[idx] = BatchResult{Index: idx, Document: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	s.logger.Info("batch generated", zap.Int("submissions", len(submissions)), zap.Int("failed", failed))
	return results
}
