package repositories

import (
	"context"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// ConsumptionRepository provides paged access to the consumption analysis table
type ConsumptionRepository interface {
	// FetchBatch returns at most limit rows of the filtered view, ordered by
	// service order number, starting at offset.
	FetchBatch(
		ctx context.Context,
		filter entities.ExtractionFilter,
		offset, limit int,
	) ([]entities.ConsumptionRow, error)
}
