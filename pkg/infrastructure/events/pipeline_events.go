package events

import (
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

const (
	RunStartedEvent      = "run.started"
	BatchExtractedEvent  = "batch.extracted"
	OrderClassifiedEvent = "order.classified"
	RecordWrittenEvent   = "record.written"
	RunCompletedEvent    = "run.completed"
	RunFailedEvent       = "run.failed"
)

type RunStarted struct {
	Report entities.ReportKey `json:"report"`
	DryRun bool               `json:"dry_run"`
}

type BatchExtracted struct {
	Batch  int `json:"batch"`
	Offset int `json:"offset"`
	Rows   int `json:"rows"`
}

type OrderClassified struct {
	Decision entities.Decision `json:"decision"`
}

type RecordWritten struct {
	Written  int `json:"written"`
	Failures int `json:"failures"`
}

type RunCompleted struct {
	Report   entities.ReportKey `json:"report"`
	Orders   int                `json:"orders"`
	Included int                `json:"included"`
	Skipped  int                `json:"skipped"`
	Written  int                `json:"written"`
}

type RunFailed struct {
	Report entities.ReportKey `json:"report"`
	Error  string             `json:"error"`
}
