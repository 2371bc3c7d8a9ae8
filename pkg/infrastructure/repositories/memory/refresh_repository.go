package memory

import (
	"context"
	"errors"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

var errSessionDone = errors.New("refresh session already finished")

// RefreshRepository refreshes a memory consumption table from in-memory view rows
type RefreshRepository struct {
	consumption *ConsumptionRepository
	writer      *ReportWriter
	view        []entities.ConsumptionRow
}

// NewRefreshRepository creates a refresh repository over the given stores
func NewRefreshRepository(consumption *ConsumptionRepository, writer *ReportWriter, view []entities.ConsumptionRow) *RefreshRepository {
	return &RefreshRepository{
		consumption: consumption,
		writer:      writer,
		view:        view,
	}
}

// Verify interface compliance
var _ repositories.RefreshRepository = (*RefreshRepository)(nil)

// BeginRefresh stages changes until Commit
func (r *RefreshRepository) BeginRefresh(ctx context.Context) (repositories.RefreshSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	view := append([]entities.ConsumptionRow(nil), r.view...)
	SortRows(view)
	return &refreshSession{
		repo: r,
		rows: r.consumption.Rows(),
		view: view,
	}, nil
}

type refreshSession struct {
	repo    *RefreshRepository
	rows    []entities.ConsumptionRow
	view    []entities.ConsumptionRow
	cleared []string
	done    bool
}

func (s *refreshSession) check(ctx context.Context) error {
	if s.done {
		return errSessionDone
	}
	return ctx.Err()
}

func (s *refreshSession) ClearTable(ctx context.Context, table string) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	s.cleared = append(s.cleared, table)
	if s.repo.writer == nil {
		return 0, nil
	}
	return int64(len(s.repo.writer.Rows(table))), nil
}

func (s *refreshSession) ClearConsumption(ctx context.Context) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	n := int64(len(s.rows))
	s.rows = nil
	return n, nil
}

func (s *refreshSession) ReadViewBatch(ctx context.Context, offset, limit int) ([]entities.ConsumptionRow, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if offset >= len(s.view) {
		return []entities.ConsumptionRow{}, nil
	}
	end := offset + limit
	if end > len(s.view) {
		end = len(s.view)
	}
	return append([]entities.ConsumptionRow(nil), s.view[offset:end]...), nil
}

func (s *refreshSession) InsertConsumption(ctx context.Context, rows []entities.ConsumptionRow) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *refreshSession) SingleSidedRows(ctx context.Context, moveTypes []entities.MoveType) ([]entities.ConsumptionRow, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	wanted := make(map[entities.MoveType]bool, len(moveTypes))
	for _, mt := range moveTypes {
		wanted[mt] = true
	}

	// An order qualifies when all its rows share one wanted move type
	kind := make(map[entities.ServiceOrderNumber]entities.MoveType)
	mixed := make(map[entities.ServiceOrderNumber]bool)
	for _, row := range s.rows {
		first, seen := kind[row.ServiceOrderNumber]
		switch {
		case !seen:
			kind[row.ServiceOrderNumber] = row.MoveType
		case first != row.MoveType:
			mixed[row.ServiceOrderNumber] = true
		}
	}

	var result []entities.ConsumptionRow
	for _, row := range s.rows {
		son := row.ServiceOrderNumber
		if !mixed[son] && wanted[kind[son]] {
			result = append(result, row)
		}
	}
	SortRows(result)
	return result, nil
}

func (s *refreshSession) DeleteOrder(ctx context.Context, order entities.ServiceOrderNumber) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	kept := s.rows[:0]
	var removed int64
	for _, row := range s.rows {
		if row.ServiceOrderNumber == order {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return removed, nil
}

func (s *refreshSession) Commit() error {
	if s.done {
		return errSessionDone
	}
	s.done = true
	s.repo.consumption.rows = s.rows
	if s.repo.writer != nil {
		for _, table := range s.cleared {
			s.repo.writer.Clear(table)
		}
	}
	return nil
}

func (s *refreshSession) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	return nil
}
