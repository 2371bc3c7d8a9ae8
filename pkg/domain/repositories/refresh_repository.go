package repositories

import (
	"context"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// RefreshSession is one transactional unit of a consumption table refresh
type RefreshSession interface {
	ClearTable(ctx context.Context, table string) (int64, error)
	ClearConsumption(ctx context.Context) (int64, error)
	// ReadViewBatch pages through the source view
	ReadViewBatch(ctx context.Context, offset, limit int) ([]entities.ConsumptionRow, error)
	InsertConsumption(ctx context.Context, rows []entities.ConsumptionRow) error
	// SingleSidedRows returns the rows of orders whose every row carries the same one of the given move types
	SingleSidedRows(ctx context.Context, moveTypes []entities.MoveType) ([]entities.ConsumptionRow, error)
	DeleteOrder(ctx context.Context, order entities.ServiceOrderNumber) (int64, error)
	Commit() error
	Rollback() error
}

// RefreshRepository opens refresh sessions
type RefreshRepository interface {
	BeginRefresh(ctx context.Context) (RefreshSession, error)
}
