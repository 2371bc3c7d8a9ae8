package repositories

import (
	"context"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// InstalledBaseRepository resolves functional locations to installed turbines
type InstalledBaseRepository interface {
	// FindByFunctionalLocation returns the first matching row, or nil when none.
	FindByFunctionalLocation(ctx context.Context, functionalLocation string) (*entities.InstalledBase, error)
}
