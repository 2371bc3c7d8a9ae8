package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
	"github.com/vsinha/oilanalysis/pkg/domain/services"
)

// ReportWriter keeps written rows per destination table. It is safe for
// concurrent runs of different reports.
type ReportWriter struct {
	mutex  sync.Mutex
	tables map[string][]map[string]any

	// FailOn, when set, rejects individual records
	FailOn func(entities.ClassifiedRecord) error
}

// NewReportWriter creates a new in-memory report writer
func NewReportWriter() *ReportWriter {
	return &ReportWriter{
		tables: make(map[string][]map[string]any),
	}
}

// Verify interface compliance
var _ repositories.ReportWriter = (*ReportWriter)(nil)

func destination(def entities.ReportDefinition) string {
	if def.Table != "" {
		return def.Table
	}
	if def.FilePath != "" {
		return def.FilePath
	}
	return string(def.Key)
}

// WriteRecords renders each record through the column map and stores it.
// In transaction mode the first failure discards the whole batch.
func (w *ReportWriter) WriteRecords(
	ctx context.Context,
	def entities.ReportDefinition,
	records []entities.ClassifiedRecord,
	mode repositories.WriteMode,
) (repositories.WriteSummary, error) {
	var summary repositories.WriteSummary
	staged := make([]map[string]any, 0, len(records))

	for i := range records {
		if err := ctx.Err(); err != nil {
			return repositories.WriteSummary{}, err
		}
		row, err := w.render(def, &records[i])
		if err != nil {
			if mode == repositories.WriteTransaction {
				return repositories.WriteSummary{}, fmt.Errorf("record %s: %w", records[i].ServiceOrderNumber, err)
			}
			summary.Failures = append(summary.Failures, repositories.WriteFailure{
				ServiceOrderNumber: records[i].ServiceOrderNumber,
				Error:              err.Error(),
			})
			continue
		}
		staged = append(staged, row)
	}

	table := destination(def)
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.tables[table] = append(w.tables[table], staged...)
	summary.Written = len(staged)
	return summary, nil
}

func (w *ReportWriter) render(def entities.ReportDefinition, record *entities.ClassifiedRecord) (map[string]any, error) {
	if w.FailOn != nil {
		if err := w.FailOn(*record); err != nil {
			return nil, err
		}
	}
	return services.RenderRow(def.Columns, record)
}

// Rows returns a copy of the rows written to a table
func (w *ReportWriter) Rows(table string) []map[string]any {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	rows := w.tables[table]
	if rows == nil {
		return nil
	}
	return append([]map[string]any(nil), rows...)
}

// Clear empties a table and returns how many rows it held
func (w *ReportWriter) Clear(table string) int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	n := int64(len(w.tables[table]))
	delete(w.tables, table)
	return n
}
