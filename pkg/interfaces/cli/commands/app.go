package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/oilanalysis/pkg/application/services/orchestration"
	"github.com/vsinha/oilanalysis/pkg/application/services/pipeline"
	"github.com/vsinha/oilanalysis/pkg/application/services/refresh"
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/config"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/events"
	csvrepo "github.com/vsinha/oilanalysis/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/repositories/jsonfile"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/repositories/sqldb"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/metrics"
)

// app is the wired process: one orchestrator over the configured source
type app struct {
	orchestrator *orchestration.ReportOrchestrator
	metrics      *metrics.Registry
	// tables holds table-sink output for the csv source
	tables *memory.ReportWriter
	close  func() error
}

// buildApp validates cfg and wires repositories, writers, refresher and metrics
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, verbose bool) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	a := &app{
		metrics: metrics.New(),
		close:   func() error { return nil },
	}
	deps := pipeline.Dependencies{Logger: logger}
	if verbose {
		store := events.NewInMemoryEventStore()
		store.Subscribe(events.LogHandler(logger))
		deps.Events = store
	}
	jsonWriter := jsonfile.NewReportWriter(cfg.Pipeline.OutputDir)

	orchestratorConfig := orchestration.Config{
		Catalog: catalog,
		Options: pipeline.Options{
			ChunkSize: cfg.Pipeline.ChunkSize,
			WriteMode: cfg.WriteMode(),
		},
		Observer: a.metrics,
		Logger:   logger,
	}

	switch cfg.Source {
	case config.SourceDatabase:
		db, err := sqldb.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, cfg.Database.Tables, logger)
		if err != nil {
			return nil, err
		}
		a.close = db.Close

		deps.Consumption = sqldb.NewConsumptionRepository(db)
		deps.InstalledBase = sqldb.NewInstalledBaseRepository(db)
		deps.Capacity = sqldb.NewCapacityRepository(db)
		deps.Writers = map[entities.SinkKind]repositories.ReportWriter{
			entities.SinkTable:    sqldb.NewReportWriter(db),
			entities.SinkJSONFile: jsonWriter,
		}
		orchestratorConfig.Refresher = refresh.NewRefresher(
			sqldb.NewRefreshRepository(db),
			jsonfile.NewAuditLog(cfg.Refresh.AuditFile),
			logger,
			refresh.Options{
				Tables:    cfg.RefreshTables(catalog),
				ChunkSize: cfg.Refresh.ChunkSize,
				AuditFile: cfg.Refresh.AuditFile,
			},
		)
		orchestratorConfig.Health = db.Ping

	case config.SourceCSV:
		scenario, err := csvrepo.NewLoader().LoadScenario(cfg.Scenario)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario %s: %w", cfg.Scenario, err)
		}
		a.tables = memory.NewReportWriter()

		deps.Consumption = scenario.Consumption
		deps.InstalledBase = scenario.InstalledBase
		deps.Capacity = scenario.Capacity
		deps.Writers = map[entities.SinkKind]repositories.ReportWriter{
			entities.SinkTable:    a.tables,
			entities.SinkJSONFile: jsonWriter,
		}
		logger.Info("loaded scenario",
			zap.String("dir", cfg.Scenario),
			zap.Int("rows", scenario.Consumption.Len()),
		)
	}

	orchestratorConfig.Dependencies = deps
	a.orchestrator = orchestration.NewReportOrchestrator(orchestratorConfig)
	return a, nil
}
