// Package refresh reloads the consumption table from its source view and
// removes orders that only carry reversals.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/oilanalysis/pkg/application/dto"
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// DefaultChunkSize is the number of view rows copied per batch
const DefaultChunkSize = 2000

// AuditSink records the rows a refresh is about to delete
type AuditSink interface {
	Append(rows []entities.ConsumptionRow) error
}

// Options tune a refresh
type Options struct {
	// Tables are the report tables cleared before the copy
	Tables    []string
	ChunkSize int
	// SingleSidedMoveTypes select the orders removed after the copy
	SingleSidedMoveTypes []entities.MoveType
	AuditFile            string
}

// Refresher runs the refresh steps in one session
type Refresher struct {
	repo    repositories.RefreshRepository
	audit   AuditSink
	logger  *zap.Logger
	options Options

	now func() time.Time
}

// NewRefresher creates a refresher
func NewRefresher(repo repositories.RefreshRepository, audit AuditSink, logger *zap.Logger, options Options) *Refresher {
	if options.ChunkSize <= 0 {
		options.ChunkSize = DefaultChunkSize
	}
	if len(options.SingleSidedMoveTypes) == 0 {
		options.SingleSidedMoveTypes = []entities.MoveType{entities.MoveTypeIssueReversal, entities.MoveTypeReturnReverse}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		repo:    repo,
		audit:   audit,
		logger:  logger,
		options: options,
		now:     time.Now,
	}
}

// Refresh clears the report tables and the consumption table, copies the
// view, audits the single-sided orders and deletes them. Nothing is
// committed unless every step succeeds.
func (r *Refresher) Refresh(ctx context.Context) (*dto.RefreshResult, error) {
	result := &dto.RefreshResult{
		RunID:         uuid.NewString(),
		StartedAt:     r.now(),
		TablesCleared: make(map[string]int64, len(r.options.Tables)),
		AuditFile:     r.options.AuditFile,
	}
	logger := r.logger.With(zap.String("run_id", result.RunID))

	session, err := r.repo.BeginRefresh(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Rollback()

	if err := r.clear(ctx, session, result, logger); err != nil {
		return result, err
	}
	if err := r.copyView(ctx, session, result, logger); err != nil {
		return result, err
	}
	if err := r.removeSingleSided(ctx, session, result, logger); err != nil {
		return result, err
	}

	if err := session.Commit(); err != nil {
		return result, err
	}
	result.Duration = r.now().Sub(result.StartedAt)
	logger.Info("refresh complete",
		zap.Int64("rows_cleared", result.RowsCleared),
		zap.Int("rows_copied", result.RowsCopied),
		zap.Int("orders_deleted", result.OrdersDeleted),
		zap.Int64("rows_deleted", result.RowsDeleted),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (r *Refresher) clear(ctx context.Context, session repositories.RefreshSession, result *dto.RefreshResult, logger *zap.Logger) error {
	for _, table := range r.options.Tables {
		n, err := session.ClearTable(ctx, table)
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		result.TablesCleared[table] = n
		logger.Debug("table cleared", zap.String("table", table), zap.Int64("rows", n))
	}

	n, err := session.ClearConsumption(ctx)
	if err != nil {
		return fmt.Errorf("clear consumption table: %w", err)
	}
	result.RowsCleared = n
	return nil
}

func (r *Refresher) copyView(ctx context.Context, session repositories.RefreshSession, result *dto.RefreshResult, logger *zap.Logger) error {
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := session.ReadViewBatch(ctx, offset, r.options.ChunkSize)
		if err != nil {
			return fmt.Errorf("read view at offset %d: %w", offset, err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := session.InsertConsumption(ctx, batch); err != nil {
			return fmt.Errorf("copy view at offset %d: %w", offset, err)
		}
		result.RowsCopied += len(batch)
		offset += len(batch)
		logger.Debug("view batch copied", zap.Int("offset", offset), zap.Int("rows", len(batch)))

		if len(batch) < r.options.ChunkSize {
			return nil
		}
	}
}

func (r *Refresher) removeSingleSided(ctx context.Context, session repositories.RefreshSession, result *dto.RefreshResult, logger *zap.Logger) error {
	rows, err := session.SingleSidedRows(ctx, r.options.SingleSidedMoveTypes)
	if err != nil {
		return fmt.Errorf("select single-sided orders: %w", err)
	}

	if r.audit != nil {
		if err := r.audit.Append(rows); err != nil {
			return fmt.Errorf("audit deleted records: %w", err)
		}
		result.AuditedRecords = len(rows)
	}

	seen := make(map[entities.ServiceOrderNumber]bool)
	for _, row := range rows {
		if seen[row.ServiceOrderNumber] {
			continue
		}
		seen[row.ServiceOrderNumber] = true

		n, err := session.DeleteOrder(ctx, row.ServiceOrderNumber)
		if err != nil {
			return fmt.Errorf("delete order %s: %w", row.ServiceOrderNumber, err)
		}
		result.OrdersDeleted++
		result.RowsDeleted += n
	}
	logger.Debug("single-sided orders removed",
		zap.Int("orders", result.OrdersDeleted),
		zap.Int64("rows", result.RowsDeleted),
	)
	return nil
}
