package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/oilanalysis/pkg/application/reports"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oilanalysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, SourceDatabase, cfg.Source)
	assert.Equal(t, "sqlserver", cfg.Database.Driver)
	assert.Equal(t, "consumption_analysis_table", cfg.Database.Tables.Consumption)
	assert.Equal(t, repositories.WriteTransaction, cfg.WriteMode())
	assert.Equal(t, 80.0, cfg.Pipeline.LowerBound)
	assert.Equal(t, 100.0, cfg.Pipeline.UpperBound)

	// Without a DSN the database source cannot run, the csv source can
	require.Error(t, cfg.Validate())
	cfg.Source = SourceCSV
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
source: database
database:
  driver: pgx
  dsn: postgres://localhost/oil
  tables:
    consumption: consumption_copy
pipeline:
  chunk_size: 500
  write_mode: continue
reports:
  gb-oil-change:
    table: gb_oil_change_test
    materials: ["51028446"]
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "consumption_copy", cfg.Database.Tables.Consumption)
	assert.Equal(t, "installedbase", cfg.Database.Tables.InstalledBase, "unset tables keep their defaults")
	assert.Equal(t, 500, cfg.Pipeline.ChunkSize)
	assert.Equal(t, repositories.WriteContinue, cfg.WriteMode())
	assert.Equal(t, 100.0, cfg.Pipeline.UpperBound)

	catalog, err := cfg.Catalog()
	require.NoError(t, err)
	def, err := catalog.Get(reports.GBOilChange)
	require.NoError(t, err)
	assert.Equal(t, "gb_oil_change_test", def.Table)
	assert.Len(t, def.Filter.Materials, 1)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "pipeline: [not, a, map]"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OILANALYSIS_DB_DRIVER", "sqlite")
	t.Setenv("OILANALYSIS_DB_DSN", "file:oil.db")
	t.Setenv("OILANALYSIS_CHUNK_SIZE", "250")
	t.Setenv("OILANALYSIS_WRITE_MODE", "continue")
	t.Setenv("OILANALYSIS_HTTP_ADDR", ":9090")

	cfg, err := Load(writeConfig(t, "database:\n  driver: pgx\n  dsn: ignored\n"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:oil.db", cfg.Database.DSN)
	assert.Equal(t, 250, cfg.Pipeline.ChunkSize)
	assert.Equal(t, repositories.WriteContinue, cfg.WriteMode())
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestEnvOverrides_BadChunkSize(t *testing.T) {
	t.Setenv("OILANALYSIS_CHUNK_SIZE", "lots")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Database.DSN = "sqlserver://sa@localhost?database=oil"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown_driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"empty_dsn", func(c *Config) { c.Database.DSN = "" }},
		{"unknown_source", func(c *Config) { c.Source = "excel" }},
		{"unknown_write_mode", func(c *Config) { c.Pipeline.WriteMode = "best-effort" }},
		{"zero_chunk_size", func(c *Config) { c.Pipeline.ChunkSize = 0 }},
		{"inverted_bounds", func(c *Config) { c.Pipeline.LowerBound = 100; c.Pipeline.UpperBound = 80 }},
		{"unknown_report", func(c *Config) { c.Reports["excel-report"] = reports.Override{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRefreshTables(t *testing.T) {
	cfg := DefaultConfig()
	catalog, err := cfg.Catalog()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"fc_oil_change", "fc_topup", "gb_oil_change", "pd_oil_change", "ydpd_topup"},
		cfg.RefreshTables(catalog))

	cfg.Refresh.Tables = []string{"gb_oil_change"}
	assert.Equal(t, []string{"gb_oil_change"}, cfg.RefreshTables(catalog))
}
