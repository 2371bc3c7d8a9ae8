package pipeline

import (
	"context"
	"fmt"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// Exclusion reasons for missing lookups
const (
	ReasonMissingInstalledBase = "installed base"
	ReasonMissingCapacity      = "capacity"
)

// Enricher resolves the secondary lookups a report needs for classification
type Enricher struct {
	installedBase repositories.InstalledBaseRepository
	capacity      repositories.CapacityRepository
}

// NewEnricher creates an enricher. Either repository may be nil when no
// report in use needs it.
func NewEnricher(
	installedBase repositories.InstalledBaseRepository,
	capacity repositories.CapacityRepository,
) *Enricher {
	return &Enricher{installedBase: installedBase, capacity: capacity}
}

// Enrich performs at most one lookup of each kind. A missing row is not an
// error: it yields ExcludedMissingLookup and the order leaves the pipeline.
func (e *Enricher) Enrich(
	ctx context.Context,
	order *entities.OrderAccumulator,
	policy entities.LookupPolicy,
) (entities.EnrichedOrder, entities.Outcome, string, error) {
	enriched := entities.EnrichedOrder{OrderAccumulator: order}

	if policy.InstalledBase {
		if e.installedBase == nil {
			return enriched, 0, "", fmt.Errorf("installed base lookup requested without a repository")
		}
		ib, err := e.installedBase.FindByFunctionalLocation(ctx, order.First.FunctionalLocation)
		if err != nil {
			return enriched, 0, "", fmt.Errorf("installed base for %s: %w", order.First.FunctionalLocation, err)
		}
		if ib == nil {
			return enriched, entities.ExcludedMissingLookup, ReasonMissingInstalledBase, nil
		}
		enriched.InstalledBase = ib
	}

	if policy.Capacity == entities.CapacityNone {
		return enriched, entities.Included, "", nil
	}
	if e.capacity == nil {
		return enriched, 0, "", fmt.Errorf("capacity lookup requested without a repository")
	}

	model := ""
	if enriched.InstalledBase != nil {
		model = enriched.InstalledBase.WTGModel
	}

	var (
		threshold *entities.CapacityThreshold
		err       error
	)
	switch policy.Capacity {
	case entities.CapacityFCThreshold:
		threshold, err = e.capacity.FCThreshold(ctx, order.First.Material, model)
	case entities.CapacityOilModel:
		threshold, err = e.capacity.OilModel(ctx, model)
	default:
		return enriched, 0, "", fmt.Errorf("unknown capacity source %q", policy.Capacity)
	}
	if err != nil {
		return enriched, 0, "", fmt.Errorf("capacity for model %s: %w", model, err)
	}
	if threshold == nil {
		return enriched, entities.ExcludedMissingLookup, ReasonMissingCapacity, nil
	}
	enriched.Capacity = threshold
	return enriched, entities.Included, "", nil
}
