package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/oilanalysis/pkg/application/reports"
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/repositories/sqldb"
)

// Source kinds
const (
	SourceDatabase = "database"
	SourceCSV      = "csv"
)

// Config holds all oilanalysis configuration
type Config struct {
	// Source selects where consumption rows come from
	Source   string `yaml:"source"`
	Scenario string `yaml:"scenario"`

	Database DatabaseConfig             `yaml:"database"`
	Pipeline PipelineConfig             `yaml:"pipeline"`
	Reports  map[string]reports.Override `yaml:"reports"`
	Refresh  RefreshConfig              `yaml:"refresh"`
	HTTP     HTTPConfig                 `yaml:"http"`
	Logging  LoggingConfig              `yaml:"logging"`
}

// DatabaseConfig configures the collaborator database
type DatabaseConfig struct {
	Driver string       `yaml:"driver"` // sqlserver, pgx, sqlite
	DSN    string       `yaml:"dsn"`
	Tables sqldb.Tables `yaml:"tables"`
}

// PipelineConfig tunes report runs
type PipelineConfig struct {
	ChunkSize int    `yaml:"chunk_size"`
	WriteMode string `yaml:"write_mode"` // transaction, continue
	// Exclusive percentage bounds shared by every rule
	LowerBound float64 `yaml:"lower_bound"`
	UpperBound float64 `yaml:"upper_bound"`
	// OutputDir is where JSON sinks are written
	OutputDir string `yaml:"output_dir"`
}

// RefreshConfig configures the consumption table refresh
type RefreshConfig struct {
	// Tables cleared before the copy. Empty means every table sink.
	Tables    []string `yaml:"tables"`
	ChunkSize int      `yaml:"chunk_size"`
	AuditFile string   `yaml:"audit_file"`
}

// HTTPConfig configures the serve command
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns a configuration that works without a file
func DefaultConfig() *Config {
	return &Config{
		Source:   SourceDatabase,
		Scenario: "data",
		Database: DatabaseConfig{
			Driver: sqldb.DriverSQLServer,
			Tables: sqldb.DefaultTables(),
		},
		Pipeline: PipelineConfig{
			ChunkSize:  2000,
			WriteMode:  string(repositories.WriteTransaction),
			LowerBound: 80,
			UpperBound: 100,
			OutputDir:  ".",
		},
		Reports: map[string]reports.Override{},
		Refresh: RefreshConfig{
			ChunkSize: 2000,
			AuditFile: "292_654_deleted.json",
		},
		HTTP: HTTPConfig{
			Addr: ":3000",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file over the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() error {
	if driver := os.Getenv("OILANALYSIS_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("OILANALYSIS_DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if size := os.Getenv("OILANALYSIS_CHUNK_SIZE"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return fmt.Errorf("OILANALYSIS_CHUNK_SIZE: %w", err)
		}
		c.Pipeline.ChunkSize = n
	}
	if mode := os.Getenv("OILANALYSIS_WRITE_MODE"); mode != "" {
		c.Pipeline.WriteMode = mode
	}
	if addr := os.Getenv("OILANALYSIS_HTTP_ADDR"); addr != "" {
		c.HTTP.Addr = addr
	}
	return nil
}

// Validate checks the configuration can drive a run
func (c *Config) Validate() error {
	switch c.Source {
	case SourceDatabase:
		if _, err := sqldb.DialectFor(c.Database.Driver); err != nil {
			return err
		}
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn is required for source %s", SourceDatabase)
		}
	case SourceCSV:
		if c.Scenario == "" {
			return fmt.Errorf("scenario directory is required for source %s", SourceCSV)
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	switch repositories.WriteMode(c.Pipeline.WriteMode) {
	case repositories.WriteTransaction, repositories.WriteContinue:
	default:
		return fmt.Errorf("unknown write mode %q", c.Pipeline.WriteMode)
	}
	if c.Pipeline.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Pipeline.ChunkSize)
	}
	if c.Pipeline.LowerBound >= c.Pipeline.UpperBound {
		return fmt.Errorf("lower bound %v must be below upper bound %v", c.Pipeline.LowerBound, c.Pipeline.UpperBound)
	}

	catalog := reports.NewCatalog()
	for key := range c.Reports {
		if !catalog.Has(entities.ReportKey(key)) {
			return fmt.Errorf("reports: unknown report: %s", key)
		}
	}
	return nil
}

// Catalog builds the report catalog with the configured bounds and overrides
func (c *Config) Catalog() (*reports.Catalog, error) {
	catalog := reports.NewCatalog()
	catalog.SetRuleBounds(c.Pipeline.LowerBound, c.Pipeline.UpperBound)
	for key, override := range c.Reports {
		if err := catalog.Apply(entities.ReportKey(key), override); err != nil {
			return nil, fmt.Errorf("reports: %w", err)
		}
	}
	return catalog, nil
}

// WriteMode returns the configured write mode
func (c *Config) WriteMode() repositories.WriteMode {
	return repositories.WriteMode(c.Pipeline.WriteMode)
}

// RefreshTables returns the tables a refresh clears
func (c *Config) RefreshTables(catalog *reports.Catalog) []string {
	if len(c.Refresh.Tables) > 0 {
		return c.Refresh.Tables
	}
	return catalog.Tables()
}
