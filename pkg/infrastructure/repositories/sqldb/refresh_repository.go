package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// RefreshRepository reloads the consumption table from the source view
type RefreshRepository struct {
	*DB
}

// NewRefreshRepository creates a refresh repository on db
func NewRefreshRepository(db *DB) *RefreshRepository {
	return &RefreshRepository{DB: db}
}

// Verify interface compliance
var _ repositories.RefreshRepository = (*RefreshRepository)(nil)

// BeginRefresh opens the transaction every refresh statement runs in
func (r *RefreshRepository) BeginRefresh(ctx context.Context) (repositories.RefreshSession, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, queryError("begin refresh", err)
	}
	return &refreshSession{DB: r.DB, tx: tx}, nil
}

type refreshSession struct {
	*DB
	tx *sql.Tx
}

func (s *refreshSession) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := s.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, queryError(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// ClearTable deletes every row of a report table. DELETE is used over
// TRUNCATE so it stays inside the transaction on every driver.
func (s *refreshSession) ClearTable(ctx context.Context, table string) (int64, error) {
	return s.exec(ctx, "clear "+table, "DELETE FROM "+s.dialect.Quote(table))
}

func (s *refreshSession) ClearConsumption(ctx context.Context) (int64, error) {
	return s.ClearTable(ctx, s.tables.Consumption)
}

func (s *refreshSession) ReadViewBatch(ctx context.Context, offset, limit int) ([]entities.ConsumptionRow, error) {
	d := s.dialect
	clause, args := d.Paginate(1, offset, limit)
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s %s",
		d.QuoteAll(consumptionColumns), d.Quote(s.tables.View), d.QuoteAll(consumptionOrdering), clause)

	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("read view batch", err)
	}
	defer rows.Close()
	return scanConsumption(rows)
}

func (s *refreshSession) InsertConsumption(ctx context.Context, rows []entities.ConsumptionRow) error {
	d := s.dialect
	statement := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(s.tables.Consumption), d.QuoteAll(consumptionColumns), d.Placeholders(1, len(consumptionColumns)))

	stmt, err := s.tx.PrepareContext(ctx, statement)
	if err != nil {
		return queryError("prepare consumption insert", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, consumptionValues(row)...); err != nil {
			return fmt.Errorf("order %s: %w", row.ServiceOrderNumber, queryError("insert consumption", err))
		}
	}
	return nil
}

func consumptionValues(row entities.ConsumptionRow) []any {
	return []any{
		string(row.ServiceOrderNumber),
		string(row.Material),
		string(row.MoveType),
		row.Quantity.String(),
		nullable(row.Unit),
		nullable(row.FunctionalLocation),
		nullable(row.Plant),
		nullable(row.StorageLocation),
		nullable(row.DocumentNumber),
		nullable(row.ValType),
		nullable(row.PostingDate),
		nullable(row.EntryDate),
		nullable(row.CurrentOilChangeDate),
		nullable(row.ParentOrder),
		nullable(row.OrderStatus),
		nullable(row.MaterialDescription),
		nullable(row.OrderType),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// SingleSidedRows returns the rows of orders whose every row is one of the
// given move types, one move type per order
func (s *refreshSession) SingleSidedRows(ctx context.Context, moveTypes []entities.MoveType) ([]entities.ConsumptionRow, error) {
	if len(moveTypes) == 0 {
		return []entities.ConsumptionRow{}, nil
	}
	d := s.dialect
	son := d.Quote("SERVICE_ORDER_NUMBER")
	moveType := d.Quote("MOVE_TYPE")
	table := d.Quote(s.tables.Consumption)

	var args []any
	groups := make([]string, len(moveTypes))
	for i, mt := range moveTypes {
		args = append(args, string(mt), string(mt))
		groups[i] = fmt.Sprintf(
			"%s IN (SELECT %s FROM %s GROUP BY %s HAVING SUM(CASE WHEN %s = %s THEN 1 ELSE 0 END) > 0 AND SUM(CASE WHEN %s = %s THEN 0 ELSE 1 END) = 0)",
			son, son, table, son,
			moveType, d.Placeholder(len(args)-1),
			moveType, d.Placeholder(len(args)),
		)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		d.QuoteAll(consumptionColumns), table, strings.Join(groups, " OR "), d.QuoteAll(consumptionOrdering))

	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("select single-sided orders", err)
	}
	defer rows.Close()
	return scanConsumption(rows)
}

func (s *refreshSession) DeleteOrder(ctx context.Context, order entities.ServiceOrderNumber) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		s.dialect.Quote(s.tables.Consumption), s.dialect.Quote("SERVICE_ORDER_NUMBER"), s.dialect.Placeholder(1))
	return s.exec(ctx, "delete order", query, string(order))
}

func (s *refreshSession) Commit() error {
	if err := s.tx.Commit(); err != nil {
		return queryError("commit refresh", err)
	}
	return nil
}

func (s *refreshSession) Rollback() error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return queryError("rollback refresh", err)
	}
	return nil
}
