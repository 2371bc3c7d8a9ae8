package sqldb

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// Tables names the collaborator tables
type Tables struct {
	Consumption   string `yaml:"consumption"`
	InstalledBase string `yaml:"installed_base"`
	FCThreshold   string `yaml:"fc_threshold"`
	OilModel      string `yaml:"oil_model"`
	View          string `yaml:"view"`
}

// DefaultTables returns the production table names
func DefaultTables() Tables {
	return Tables{
		Consumption:   "consumption_analysis_table",
		InstalledBase: "installedbase",
		FCThreshold:   "fc_threshold",
		OilModel:      "oil_model_master",
		View:          "vw_consumption_analysis",
	}
}

func (t Tables) withDefaults() Tables {
	d := DefaultTables()
	if t.Consumption == "" {
		t.Consumption = d.Consumption
	}
	if t.InstalledBase == "" {
		t.InstalledBase = d.InstalledBase
	}
	if t.FCThreshold == "" {
		t.FCThreshold = d.FCThreshold
	}
	if t.OilModel == "" {
		t.OilModel = d.OilModel
	}
	if t.View == "" {
		t.View = d.View
	}
	return t
}

// DB is a connection pool plus the dialect and table names every
// repository in this package shares
type DB struct {
	db      *sql.DB
	dialect Dialect
	tables  Tables
	logger  *zap.Logger
}

// Open connects to the database and verifies the connection
func Open(ctx context.Context, driver, dsn string, tables Tables, logger *zap.Logger) (*DB, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, &entities.ConnectionError{Driver: driver, Err: err}
	}
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, &entities.ConnectionError{Driver: driver, Err: err}
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &entities.ConnectionError{Driver: driver, Err: err}
	}
	return New(db, dialect, tables, logger), nil
}

// New wraps an existing pool
func New(db *sql.DB, dialect Dialect, tables Tables, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{
		db:      db,
		dialect: dialect,
		tables:  tables.withDefaults(),
		logger:  logger,
	}
}

// Close releases the pool
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping verifies the connection is alive
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return &entities.ConnectionError{Driver: d.dialect.Driver, Err: err}
	}
	return nil
}

// Dialect returns the dialect of the pool
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Tables returns the configured table names
func (d *DB) Tables() Tables {
	return d.tables
}

// SQL exposes the underlying pool
func (d *DB) SQL() *sql.DB {
	return d.db
}

func queryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &entities.QueryError{Op: op, Err: err}
}
