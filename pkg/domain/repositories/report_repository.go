package repositories

import (
	"context"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// WriteMode is the partial failure policy of a report write
type WriteMode string

const (
	// WriteTransaction commits every record or none
	WriteTransaction WriteMode = "transaction"
	// WriteContinue attempts every record and reports the failures
	WriteContinue WriteMode = "continue"
)

// WriteFailure records one insert that failed in continue mode
type WriteFailure struct {
	ServiceOrderNumber entities.ServiceOrderNumber `json:"service_order_number"`
	Error              string                      `json:"error"`
}

// WriteSummary is the outcome of writing a batch of records
type WriteSummary struct {
	Written  int
	Failures []WriteFailure
}

// ReportWriter persists classified records for one report
type ReportWriter interface {
	WriteRecords(
		ctx context.Context,
		def entities.ReportDefinition,
		records []entities.ClassifiedRecord,
		mode WriteMode,
	) (WriteSummary, error)
}
