package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/oilanalysis/pkg/application/dto"
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
	"github.com/vsinha/oilanalysis/pkg/domain/services"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/events"
)

// Options tune a pipeline run
type Options struct {
	ChunkSize int
	WriteMode repositories.WriteMode
	// DryRun classifies without writing
	DryRun bool
	// KeepDecisions retains every per-order decision in the result
	KeepDecisions bool
}

// Dependencies are the collaborators of a pipeline
type Dependencies struct {
	Consumption   repositories.ConsumptionRepository
	InstalledBase repositories.InstalledBaseRepository
	Capacity      repositories.CapacityRepository
	Writers       map[entities.SinkKind]repositories.ReportWriter
	Events        events.Publisher
	Logger        *zap.Logger
}

// Pipeline runs extraction, aggregation, enrichment, classification and
// writing for one report at a time. Runs are sequential and keep no state
// between invocations.
type Pipeline struct {
	extractor *Extractor
	enricher  *Enricher
	writers   map[entities.SinkKind]repositories.ReportWriter
	events    events.Publisher
	logger    *zap.Logger
	options   Options

	now func() time.Time
}

// New creates a pipeline
func New(deps Dependencies, options Options) *Pipeline {
	if options.ChunkSize <= 0 {
		options.ChunkSize = DefaultChunkSize
	}
	if options.WriteMode == "" {
		options.WriteMode = repositories.WriteTransaction
	}
	publisher := deps.Events
	if publisher == nil {
		publisher = events.Discard
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		extractor: NewExtractor(deps.Consumption),
		enricher:  NewEnricher(deps.InstalledBase, deps.Capacity),
		writers:   deps.Writers,
		events:    publisher,
		logger:    logger,
		options:   options,
		now:       time.Now,
	}
}

// Run executes the whole pipeline for def. Fatal errors abort the run; order
// exclusions are tallied in the result.
func (p *Pipeline) Run(ctx context.Context, def entities.ReportDefinition) (*dto.RunResult, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	var writer repositories.ReportWriter
	if !p.options.DryRun {
		w, ok := p.writers[def.Sink]
		if !ok || w == nil {
			return nil, fmt.Errorf("report %s: no writer for sink %q", def.Key, def.Sink)
		}
		writer = w
	}

	result := &dto.RunResult{
		RunID:     uuid.NewString(),
		Report:    def.Key,
		DryRun:    p.options.DryRun,
		StartedAt: p.now(),
	}
	logger := p.logger.With(zap.String("report", string(def.Key)), zap.String("run_id", result.RunID))
	p.publish(events.RunStartedEvent, result.RunID, events.RunStarted{Report: def.Key, DryRun: p.options.DryRun})

	if err := p.run(ctx, def, writer, result, logger); err != nil {
		result.Duration = p.now().Sub(result.StartedAt)
		logger.Error("run failed", zap.Error(err), zap.Bool("fatal", entities.IsFatal(err)))
		p.publish(events.RunFailedEvent, result.RunID, events.RunFailed{Report: def.Key, Error: err.Error()})
		return result, err
	}

	result.Duration = p.now().Sub(result.StartedAt)
	logger.Info("run complete",
		zap.Int("rows", result.RowsRead),
		zap.Int("orders", result.Orders),
		zap.Int("included", result.Included),
		zap.Int("excluded_missing_lookup", result.ExcludedMissingLookup),
		zap.Int("excluded_by_rule", result.ExcludedByRule),
		zap.Int("written", result.Written),
		zap.Int("write_failures", len(result.WriteFailures)),
		zap.Duration("duration", result.Duration),
	)
	p.publish(events.RunCompletedEvent, result.RunID, events.RunCompleted{
		Report:   def.Key,
		Orders:   result.Orders,
		Included: result.Included,
		Skipped:  result.Skipped(),
		Written:  result.Written,
	})
	return result, nil
}

func (p *Pipeline) run(
	ctx context.Context,
	def entities.ReportDefinition,
	writer repositories.ReportWriter,
	result *dto.RunResult,
	logger *zap.Logger,
) error {
	// Extract and aggregate, one batch at a time
	aggregator := NewAggregator(def.Filter)
	offset := 0
	for batch, err := range p.extractor.Batches(ctx, def.Filter, p.options.ChunkSize) {
		if err != nil {
			return err
		}
		result.Batches++
		aggregator.Add(batch)
		logger.Debug("batch extracted",
			zap.Int("batch", result.Batches),
			zap.Int("offset", offset),
			zap.Int("rows", len(batch)),
		)
		p.publish(events.BatchExtractedEvent, result.RunID, events.BatchExtracted{
			Batch:  result.Batches,
			Offset: offset,
			Rows:   len(batch),
		})
		offset += len(batch)
	}
	result.RowsRead = aggregator.RowsSeen()
	result.RowsSkipped = aggregator.RowsSkipped()

	// Enrich and classify in first-seen order
	orders := aggregator.Orders()
	result.Orders = len(orders)
	insertionDate := result.StartedAt.Format("2006-01-02")

	for _, order := range orders {
		enriched, outcome, reason, err := p.enricher.Enrich(ctx, order, def.Lookups)
		if err != nil {
			return err
		}

		var decision entities.Decision
		if outcome == entities.ExcludedMissingLookup {
			decision = entities.Decision{
				ServiceOrderNumber: order.ServiceOrderNumber,
				Outcome:            outcome,
				Reason:             reason,
				Percentage:         order.PercentageIssueReturn(),
			}
		} else {
			decision = services.Classify(enriched, def, insertionDate)
		}

		if decision.Percentage.IsZero() {
			result.ZeroPercent++
		}
		switch decision.Outcome {
		case entities.Included:
			result.Included++
			result.Records = append(result.Records, *decision.Record)
		case entities.ExcludedMissingLookup:
			result.ExcludedMissingLookup++
		case entities.ExcludedByRule:
			result.ExcludedByRule++
		}
		if p.options.KeepDecisions {
			result.Decisions = append(result.Decisions, decision)
		}
		p.publish(events.OrderClassifiedEvent, result.RunID, events.OrderClassified{Decision: decision})
	}

	if writer == nil {
		return nil
	}

	summary, err := writer.WriteRecords(ctx, def, result.Records, p.options.WriteMode)
	result.Written = summary.Written
	result.WriteFailures = summary.Failures
	for _, failure := range summary.Failures {
		logger.Warn("record not written",
			zap.String("service_order_number", string(failure.ServiceOrderNumber)),
			zap.String("error", failure.Error),
		)
	}
	p.publish(events.RecordWrittenEvent, result.RunID, events.RecordWritten{
		Written:  summary.Written,
		Failures: len(summary.Failures),
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", def.Key, err)
	}
	return nil
}

func (p *Pipeline) publish(eventType, runID string, data any) {
	if err := p.events.Publish(events.NewEvent(eventType, runID, data)); err != nil {
		p.logger.Warn("event handler failed", zap.String("type", eventType), zap.Error(err))
	}
}
