package dto

import (
	"time"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// RunResult contains the complete output of one report run
type RunResult struct {
	RunID     string             `json:"run_id"`
	Report    entities.ReportKey `json:"report"`
	DryRun    bool               `json:"dry_run"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`

	Batches     int `json:"batches"`
	RowsRead    int `json:"rows_read"`
	RowsSkipped int `json:"rows_skipped"`
	Orders      int `json:"orders"`

	Included              int `json:"included"`
	ExcludedMissingLookup int `json:"excluded_missing_lookup"`
	ExcludedByRule        int `json:"excluded_by_rule"`
	// ZeroPercent counts orders whose return percentage is exactly zero
	ZeroPercent int `json:"zero_percent"`

	Written       int                         `json:"written"`
	WriteFailures []repositories.WriteFailure `json:"write_failures,omitempty"`

	Decisions []entities.Decision         `json:"decisions,omitempty"`
	Records   []entities.ClassifiedRecord `json:"records,omitempty"`
}

// Skipped is the number of orders excluded for any reason
func (r *RunResult) Skipped() int {
	return r.ExcludedMissingLookup + r.ExcludedByRule
}

// RefreshResult summarises a consumption table refresh
type RefreshResult struct {
	RunID          string           `json:"run_id"`
	StartedAt      time.Time        `json:"started_at"`
	Duration       time.Duration    `json:"duration"`
	TablesCleared  map[string]int64 `json:"tables_cleared"`
	RowsCleared    int64            `json:"rows_cleared"`
	RowsCopied     int              `json:"rows_copied"`
	OrdersDeleted  int              `json:"orders_deleted"`
	RowsDeleted    int64            `json:"rows_deleted"`
	AuditFile      string           `json:"audit_file"`
	AuditedRecords int              `json:"audited_records"`
}
