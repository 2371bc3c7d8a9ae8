package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/oilanalysis/pkg/application/dto"
	"github.com/vsinha/oilanalysis/pkg/application/reports"
	"github.com/vsinha/oilanalysis/pkg/application/services/pipeline"
	"github.com/vsinha/oilanalysis/pkg/application/services/refresh"
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

var (
	// ErrUnknownReport is returned for a key outside the catalog
	ErrUnknownReport = errors.New("unknown report")
	// ErrRunInProgress is returned when the same report is already running
	ErrRunInProgress = errors.New("run already in progress")
	// ErrRefreshUnavailable is returned when no refresher is configured
	ErrRefreshUnavailable = errors.New("refresh is not available for this source")
)

// refreshLock is the lock key of refresh runs
const refreshLock entities.ReportKey = "refresh"

// Observer receives the outcome of every run
type Observer interface {
	Observe(report entities.ReportKey, result *dto.RunResult, err error)
	ObserveRefresh(duration time.Duration, err error)
}

// RunOptions adjust a single run
type RunOptions struct {
	DryRun        bool
	KeepDecisions bool
}

// ReportOrchestrator runs catalog reports and refreshes, one at a time per key
type ReportOrchestrator struct {
	catalog   *reports.Catalog
	deps      pipeline.Dependencies
	options   pipeline.Options
	refresher *refresh.Refresher
	observer  Observer
	health    func(ctx context.Context) error
	logger    *zap.Logger

	mutex   sync.Mutex
	running map[entities.ReportKey]bool
}

// Config wires a ReportOrchestrator
type Config struct {
	Catalog      *reports.Catalog
	Dependencies pipeline.Dependencies
	Options      pipeline.Options
	// Refresher is nil when the source cannot be refreshed
	Refresher *refresh.Refresher
	Observer  Observer
	// Health checks the source, nil means always healthy
	Health func(ctx context.Context) error
	Logger *zap.Logger
}

// NewReportOrchestrator creates a new report orchestrator
func NewReportOrchestrator(cfg Config) *ReportOrchestrator {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = reports.NewCatalog()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := cfg.Dependencies
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &ReportOrchestrator{
		catalog:   catalog,
		deps:      deps,
		options:   cfg.Options,
		refresher: cfg.Refresher,
		observer:  cfg.Observer,
		health:    cfg.Health,
		logger:    logger,
		running:   make(map[entities.ReportKey]bool),
	}
}

// Catalog returns the report catalog
func (o *ReportOrchestrator) Catalog() *reports.Catalog {
	return o.catalog
}

func (o *ReportOrchestrator) acquire(key entities.ReportKey) bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.running[key] {
		return false
	}
	o.running[key] = true
	return true
}

func (o *ReportOrchestrator) release(key entities.ReportKey) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	delete(o.running, key)
}

// RunReport runs one report through the pipeline
func (o *ReportOrchestrator) RunReport(ctx context.Context, key entities.ReportKey, opts RunOptions) (*dto.RunResult, error) {
	def, err := o.catalog.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, key)
	}
	if !o.acquire(key) {
		return nil, fmt.Errorf("%s: %w", key, ErrRunInProgress)
	}
	defer o.release(key)

	options := o.options
	options.DryRun = options.DryRun || opts.DryRun
	options.KeepDecisions = options.KeepDecisions || opts.KeepDecisions

	result, err := pipeline.New(o.deps, options).Run(ctx, def)
	if o.observer != nil {
		o.observer.Observe(key, result, err)
	}
	return result, err
}

// RunAll runs every catalog report in key order and stops at the first error
func (o *ReportOrchestrator) RunAll(ctx context.Context, opts RunOptions) ([]*dto.RunResult, error) {
	var results []*dto.RunResult
	for _, key := range o.catalog.Keys() {
		result, err := o.RunReport(ctx, key, opts)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Refresh reloads the consumption table from the source view
func (o *ReportOrchestrator) Refresh(ctx context.Context) (*dto.RefreshResult, error) {
	if o.refresher == nil {
		return nil, ErrRefreshUnavailable
	}
	if !o.acquire(refreshLock) {
		return nil, fmt.Errorf("refresh: %w", ErrRunInProgress)
	}
	defer o.release(refreshLock)

	started := time.Now()
	result, err := o.refresher.Refresh(ctx)
	if o.observer != nil {
		o.observer.ObserveRefresh(time.Since(started), err)
	}
	if err != nil {
		o.logger.Error("refresh failed", zap.Error(err))
	}
	return result, err
}

// Ping checks the source is reachable
func (o *ReportOrchestrator) Ping(ctx context.Context) error {
	if o.health == nil {
		return nil
	}
	return o.health(ctx)
}
