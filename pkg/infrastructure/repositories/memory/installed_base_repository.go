package memory

import (
	"context"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// InstalledBaseRepository provides in-memory installed base storage
type InstalledBaseRepository struct {
	turbines    []entities.InstalledBase
	locationMap map[string]int
}

// NewInstalledBaseRepository creates a new in-memory installed base repository
func NewInstalledBaseRepository(expected int) *InstalledBaseRepository {
	return &InstalledBaseRepository{
		turbines:    make([]entities.InstalledBase, 0, expected),
		locationMap: make(map[string]int, expected),
	}
}

// Verify interface compliance
var _ repositories.InstalledBaseRepository = (*InstalledBaseRepository)(nil)

// LoadInstalledBase loads turbines into the repository
func (r *InstalledBaseRepository) LoadInstalledBase(turbines []entities.InstalledBase) {
	for _, ib := range turbines {
		r.AddInstalledBase(ib)
	}
}

// AddInstalledBase adds a turbine. The first row for a location wins.
func (r *InstalledBaseRepository) AddInstalledBase(ib entities.InstalledBase) {
	if _, exists := r.locationMap[ib.FunctionalLocation]; !exists {
		r.locationMap[ib.FunctionalLocation] = len(r.turbines)
	}
	r.turbines = append(r.turbines, ib)
}

// FindByFunctionalLocation returns the turbine at a location, or nil
func (r *InstalledBaseRepository) FindByFunctionalLocation(ctx context.Context, functionalLocation string) (*entities.InstalledBase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	index, exists := r.locationMap[functionalLocation]
	if !exists {
		return nil, nil
	}
	ib := r.turbines[index]
	return &ib, nil
}
