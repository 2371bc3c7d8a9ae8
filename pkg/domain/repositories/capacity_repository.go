package repositories

import (
	"context"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// CapacityRepository provides oil capacity thresholds per turbine model.
// Both lookups return the minimum threshold row, or nil when none matches.
type CapacityRepository interface {
	FCThreshold(ctx context.Context, material entities.MaterialCode, wtgModel string) (*entities.CapacityThreshold, error)
	OilModel(ctx context.Context, wtgModel string) (*entities.CapacityThreshold, error)
}
