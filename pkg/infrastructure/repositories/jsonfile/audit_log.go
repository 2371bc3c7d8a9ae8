package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// AuditEntry is one dated batch of rows removed by a refresh
type AuditEntry struct {
	Date           string                    `json:"date"`
	DeletedRecords []entities.ConsumptionRow `json:"deleted_records"`
}

// AuditLog appends entries to a JSON array file
type AuditLog struct {
	Path string
	now  func() time.Time
}

// NewAuditLog creates an audit log at path
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{Path: path, now: time.Now}
}

// Append adds a dated entry, creating the file if it is missing
func (a *AuditLog) Append(rows []entities.ConsumptionRow) error {
	entries, err := a.Entries()
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []entities.ConsumptionRow{}
	}
	entries = append(entries, AuditEntry{
		Date:           a.now().UTC().Format("2006-01-02"),
		DeletedRecords: rows,
	})

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encode audit log: %w", err)
	}
	return writeFileAtomic(a.Path, data)
}

// Entries reads every entry in the file. A missing file has none.
func (a *AuditLog) Entries() ([]AuditEntry, error) {
	data, err := os.ReadFile(a.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read audit log %s: %w", a.Path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []AuditEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode audit log %s: %w", a.Path, err)
	}
	return entries, nil
}
