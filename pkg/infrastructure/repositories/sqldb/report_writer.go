package sqldb

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
	"github.com/vsinha/oilanalysis/pkg/domain/services"
)

// ReportWriter inserts classified records into the definition's table
type ReportWriter struct {
	*DB
}

// NewReportWriter creates a table writer on db
func NewReportWriter(db *DB) *ReportWriter {
	return &ReportWriter{DB: db}
}

// Verify interface compliance
var _ repositories.ReportWriter = (*ReportWriter)(nil)

func (w *ReportWriter) insertStatement(def entities.ReportDefinition) string {
	columns := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		columns[i] = c.Column
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		w.dialect.Quote(def.Table),
		w.dialect.QuoteAll(columns),
		w.dialect.Placeholders(1, len(columns)),
	)
}

// WriteRecords inserts one row per record in order
func (w *ReportWriter) WriteRecords(
	ctx context.Context,
	def entities.ReportDefinition,
	records []entities.ClassifiedRecord,
	mode repositories.WriteMode,
) (repositories.WriteSummary, error) {
	if def.Table == "" {
		return repositories.WriteSummary{}, fmt.Errorf("report %s has no destination table", def.Key)
	}
	statement := w.insertStatement(def)

	if mode == repositories.WriteContinue {
		return w.writeEach(ctx, def, statement, records), nil
	}
	return w.writeAll(ctx, def, statement, records)
}

// writeAll inserts inside one transaction and rolls back on the first failure
func (w *ReportWriter) writeAll(
	ctx context.Context,
	def entities.ReportDefinition,
	statement string,
	records []entities.ClassifiedRecord,
) (repositories.WriteSummary, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return repositories.WriteSummary{}, queryError("begin write", err)
	}
	defer tx.Rollback()

	for i := range records {
		values, err := services.RenderColumns(def.Columns, &records[i])
		if err != nil {
			return repositories.WriteSummary{}, fmt.Errorf("record %s: %w", records[i].ServiceOrderNumber, err)
		}
		if _, err := tx.ExecContext(ctx, statement, values...); err != nil {
			return repositories.WriteSummary{}, fmt.Errorf("record %s: %w",
				records[i].ServiceOrderNumber, queryError("insert "+def.Table, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return repositories.WriteSummary{}, queryError("commit write", err)
	}
	return repositories.WriteSummary{Written: len(records)}, nil
}

// writeEach attempts every record and collects the failures
func (w *ReportWriter) writeEach(
	ctx context.Context,
	def entities.ReportDefinition,
	statement string,
	records []entities.ClassifiedRecord,
) repositories.WriteSummary {
	var summary repositories.WriteSummary
	fail := func(record *entities.ClassifiedRecord, err error) {
		w.logger.Debug("insert failed",
			zap.String("table", def.Table),
			zap.String("service_order_number", string(record.ServiceOrderNumber)),
			zap.Error(err),
		)
		summary.Failures = append(summary.Failures, repositories.WriteFailure{
			ServiceOrderNumber: record.ServiceOrderNumber,
			Error:              err.Error(),
		})
	}

	for i := range records {
		values, err := services.RenderColumns(def.Columns, &records[i])
		if err != nil {
			fail(&records[i], err)
			continue
		}
		if _, err := w.db.ExecContext(ctx, statement, values...); err != nil {
			fail(&records[i], queryError("insert "+def.Table, err))
			continue
		}
		summary.Written++
	}
	return summary
}
