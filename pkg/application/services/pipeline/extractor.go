package pipeline

import (
	"context"
	"fmt"
	"iter"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// DefaultChunkSize is the page size used when none is configured
const DefaultChunkSize = 2000

// Extractor pages through the consumption table one window at a time
type Extractor struct {
	repo repositories.ConsumptionRepository
}

// NewExtractor creates an extractor over the given repository
func NewExtractor(repo repositories.ConsumptionRepository) *Extractor {
	return &Extractor{repo: repo}
}

// Batches yields successive offset/limit windows of the filtered view. The
// sequence ends after a short or empty batch, on the first error, or when the
// consumer stops ranging. Nothing is fetched ahead of the consumer.
func (e *Extractor) Batches(
	ctx context.Context,
	filter entities.ExtractionFilter,
	chunkSize int,
) iter.Seq2[[]entities.ConsumptionRow, error] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return func(yield func([]entities.ConsumptionRow, error) bool) {
		offset := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			batch, err := e.repo.FetchBatch(ctx, filter, offset, chunkSize)
			if err != nil {
				yield(nil, fmt.Errorf("fetch batch at offset %d: %w", offset, err))
				return
			}
			if len(batch) == 0 {
				return
			}
			if !yield(batch, nil) {
				return
			}
			if len(batch) < chunkSize {
				return
			}
			offset += chunkSize
		}
	}
}
