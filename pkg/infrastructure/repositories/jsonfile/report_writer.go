// Package jsonfile writes report records and refresh audits as JSON documents
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
	"github.com/vsinha/oilanalysis/pkg/domain/services"
)

// ReportWriter overwrites the definition's file with a pretty-printed array
// of the rendered records on every run
type ReportWriter struct {
	// Dir, when set, is prefixed to relative file paths
	Dir string
}

// NewReportWriter creates a JSON file writer rooted at dir
func NewReportWriter(dir string) *ReportWriter {
	return &ReportWriter{Dir: dir}
}

// Verify interface compliance
var _ repositories.ReportWriter = (*ReportWriter)(nil)

// Path resolves the output file of a definition
func (w *ReportWriter) Path(def entities.ReportDefinition) string {
	if w.Dir == "" || filepath.IsAbs(def.FilePath) {
		return def.FilePath
	}
	return filepath.Join(w.Dir, def.FilePath)
}

// WriteRecords renders every record and replaces the file. A record that
// cannot be rendered fails the whole write in transaction mode and is
// skipped in continue mode.
func (w *ReportWriter) WriteRecords(
	ctx context.Context,
	def entities.ReportDefinition,
	records []entities.ClassifiedRecord,
	mode repositories.WriteMode,
) (repositories.WriteSummary, error) {
	var summary repositories.WriteSummary
	rows := make([]orderedRow, 0, len(records))

	for i := range records {
		if err := ctx.Err(); err != nil {
			return repositories.WriteSummary{}, err
		}
		values, err := services.RenderColumns(def.Columns, &records[i])
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
		rows = append(rows, orderedRow{columns: def.Columns, values: values})
	}

	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return repositories.WriteSummary{}, fmt.Errorf("encode %s: %w", def.Key, err)
	}
	path := w.Path(def)
	if err := writeFileAtomic(path, data); err != nil {
		return repositories.WriteSummary{}, err
	}

	summary.Written = len(rows)
	return summary, nil
}

// orderedRow marshals as an object whose keys follow the column map
type orderedRow struct {
	columns []entities.ColumnMapping
	values  []any
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
