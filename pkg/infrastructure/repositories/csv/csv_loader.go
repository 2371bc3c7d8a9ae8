package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/repositories/memory"
)

// Scenario file names inside a scenario directory
const (
	ConsumptionFile   = "consumption_analysis_table.csv"
	InstalledBaseFile = "installedbase.csv"
	FCThresholdFile   = "fc_threshold.csv"
	OilModelFile      = "oil_model_master.csv"
)

// Loader handles loading table exports from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// Scenario is a directory of table exports loaded into memory repositories
type Scenario struct {
	Consumption   *memory.ConsumptionRepository
	InstalledBase *memory.InstalledBaseRepository
	Capacity      *memory.CapacityRepository
}

// LoadScenario loads every export in dir. Only the consumption file is required.
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	rows, err := l.LoadConsumption(filepath.Join(dir, ConsumptionFile))
	if err != nil {
		return nil, err
	}
	scenario := &Scenario{
		Consumption:   memory.NewConsumptionRepository(len(rows)),
		InstalledBase: memory.NewInstalledBaseRepository(0),
		Capacity:      memory.NewCapacityRepository(),
	}
	scenario.Consumption.LoadRows(rows)

	turbines, err := optional(l.LoadInstalledBase(filepath.Join(dir, InstalledBaseFile)))
	if err != nil {
		return nil, err
	}
	scenario.InstalledBase.LoadInstalledBase(turbines)

	thresholds, err := optional(l.LoadFCThresholds(filepath.Join(dir, FCThresholdFile)))
	if err != nil {
		return nil, err
	}
	for _, t := range thresholds {
		scenario.Capacity.AddFCThreshold(t)
	}

	models, err := optional(l.LoadOilModels(filepath.Join(dir, OilModelFile)))
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		scenario.Capacity.AddOilModel(m)
	}
	return scenario, nil
}

func optional[T any](values []T, err error) ([]T, error) {
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return values, err
}

// LoadConsumption loads consumption rows from a CSV file
func (l *Loader) LoadConsumption(filename string) ([]entities.ConsumptionRow, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open consumption file %s: %w", filename, err)
	}
	defer file.Close()
	return ReadConsumption(file)
}

// ReadConsumption parses a consumption_analysis_table export. Columns are
// matched by name; only the grouping and quantity columns are required.
func ReadConsumption(r io.Reader) ([]entities.ConsumptionRow, error) {
	t, err := readTable(r, "consumption", []string{"service_order_number", "material", "move_type", "quantity"})
	if err != nil {
		return nil, err
	}

	rows := make([]entities.ConsumptionRow, 0, len(t.records))
	for i, record := range t.records {
		quantity, err := entities.ParseQuantity(t.get(record, "quantity"))
		if err != nil {
			return nil, fmt.Errorf("consumption CSV row %d: %w", i+2, err)
		}
		rows = append(rows, entities.ConsumptionRow{
			ServiceOrderNumber:   entities.ServiceOrderNumber(t.get(record, "service_order_number")),
			Material:             entities.MaterialCode(t.get(record, "material")),
			MoveType:             entities.MoveType(t.get(record, "move_type")),
			Quantity:             quantity,
			Unit:                 t.get(record, "unit"),
			FunctionalLocation:   t.get(record, "functional_location"),
			Plant:                t.get(record, "plant"),
			StorageLocation:      t.get(record, "stor_loc"),
			DocumentNumber:       t.get(record, "document_number"),
			ValType:              t.get(record, "val_type"),
			PostingDate:          t.get(record, "posting_date"),
			EntryDate:            t.get(record, "entry_date"),
			CurrentOilChangeDate: t.get(record, "current_oil_change_date"),
			ParentOrder:          t.get(record, "zzaufnr"),
			OrderStatus:          t.get(record, "ztext1"),
			MaterialDescription:  t.get(record, "txtmd"),
			OrderType:            t.get(record, "order_type"),
		})
	}
	return rows, nil
}

// LoadInstalledBase loads turbines from a CSV file
func (l *Loader) LoadInstalledBase(filename string) ([]entities.InstalledBase, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open installed base file %s: %w", filename, err)
	}
	defer file.Close()
	return ReadInstalledBase(file)
}

// ReadInstalledBase parses an installedbase export
func ReadInstalledBase(r io.Reader) ([]entities.InstalledBase, error) {
	t, err := readTable(r, "installed base", []string{"functional_location", "wtg_model"})
	if err != nil {
		return nil, err
	}
	turbines := make([]entities.InstalledBase, 0, len(t.records))
	for _, record := range t.records {
		turbines = append(turbines, entities.InstalledBase{
			FunctionalLocation: t.get(record, "functional_location"),
			WTGModel:           t.get(record, "wtg_model"),
			State:              t.get(record, "state"),
			Area:               t.get(record, "area"),
			Site:               t.get(record, "site"),
		})
	}
	return turbines, nil
}

// LoadFCThresholds loads fc_threshold rows from a CSV file
func (l *Loader) LoadFCThresholds(filename string) ([]memory.FCThreshold, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open fc threshold file %s: %w", filename, err)
	}
	defer file.Close()
	return ReadFCThresholds(file)
}

// ReadFCThresholds parses an fc_threshold export
func ReadFCThresholds(r io.Reader) ([]memory.FCThreshold, error) {
	t, err := readTable(r, "fc threshold", []string{"material_code", "wtg_model", "ten_percent_reduced_value"})
	if err != nil {
		return nil, err
	}
	thresholds := make([]memory.FCThreshold, 0, len(t.records))
	for i, record := range t.records {
		value, err := parseDecimal("ten_percent_reduced_value", t.get(record, "ten_percent_reduced_value"))
		if err != nil {
			return nil, fmt.Errorf("fc threshold CSV row %d: %w", i+2, err)
		}
		thresholds = append(thresholds, memory.FCThreshold{
			Material:               entities.MaterialCode(t.get(record, "material_code")),
			WTGModel:               t.get(record, "wtg_model"),
			TenPercentReducedValue: value,
		})
	}
	return thresholds, nil
}

// LoadOilModels loads oil_model_master rows from a CSV file
func (l *Loader) LoadOilModels(filename string) ([]memory.OilModel, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open oil model file %s: %w", filename, err)
	}
	defer file.Close()
	return ReadOilModels(file)
}

// ReadOilModels parses an oil_model_master export
func ReadOilModels(r io.Reader) ([]memory.OilModel, error) {
	t, err := readTable(r, "oil model", []string{"wtg_model", "total_yaw_drive_oil_per_wtg", "total_pitch_drive_oil_per_wtg"})
	if err != nil {
		return nil, err
	}
	models := make([]memory.OilModel, 0, len(t.records))
	for i, record := range t.records {
		yaw, err := parseDecimal("total_yaw_drive_oil_per_wtg", t.get(record, "total_yaw_drive_oil_per_wtg"))
		if err != nil {
			return nil, fmt.Errorf("oil model CSV row %d: %w", i+2, err)
		}
		pitch, err := parseDecimal("total_pitch_drive_oil_per_wtg", t.get(record, "total_pitch_drive_oil_per_wtg"))
		if err != nil {
			return nil, fmt.Errorf("oil model CSV row %d: %w", i+2, err)
		}
		models = append(models, memory.OilModel{
			WTGModel:            t.get(record, "wtg_model"),
			YawDriveOilPerWTG:   yaw,
			PitchDriveOilPerWTG: pitch,
		})
	}
	return models, nil
}

// Helper functions for parsing CSV records

type table struct {
	columns map[string]int
	records [][]string
}

func (t *table) get(record []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func readTable(r io.Reader, name string, required []string) (*table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", name)
	}

	header := records[0]
	t := &table{columns: make(map[string]int, len(header)), records: records[1:]}
	for i, col := range header {
		t.columns[normalizeColumn(col)] = i
	}
	if missing := missingColumns(t.columns, required); len(missing) > 0 {
		return nil, fmt.Errorf("%s CSV header missing columns %v, got %v", name, missing, header)
	}
	for i, record := range t.records {
		if len(record) != len(header) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(header), len(record))
		}
	}
	return t, nil
}

func normalizeColumn(col string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
}

func missingColumns(columns map[string]int, required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &entities.ParseError{Field: field, Value: s, Err: err}
	}
	return d, nil
}
