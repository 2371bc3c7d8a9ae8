package testing

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	csvrepo "github.com/vsinha/oilanalysis/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/oilanalysis/pkg/infrastructure/repositories/memory"
)

// WindFarmIncluded is the number of included orders per report in the wind
// farm scenario
var WindFarmIncluded = map[entities.ReportKey]int{
	"gb-oil-change": 2,
	"fc-oil-change": 1,
	"fc-topup":      1,
	"pd-oil-change": 1,
	"yd-oil-change": 2,
	"ydpd-topup":    1,
}

func movement(order, material, moveType, qty, fl, orderType string) entities.ConsumptionRow {
	return entities.ConsumptionRow{
		ServiceOrderNumber:  entities.ServiceOrderNumber(order),
		Material:            entities.MaterialCode(material),
		MoveType:            entities.MoveType(moveType),
		Quantity:            decimal.RequireFromString(qty),
		Unit:                "L",
		FunctionalLocation:  fl,
		Plant:               "TN01",
		StorageLocation:     "S001",
		DocumentNumber:      "49" + order[len(order)-3:] + moveType,
		ValType:             "NEW",
		PostingDate:         "15-03-2024",
		EntryDate:           "16-03-2024",
		OrderStatus:         "TECO",
		MaterialDescription: "OIL " + material,
		OrderType:           orderType,
	}
}

// WindFarmRows builds four service orders:
//
//	SO-100 gear oil, 85% returned, ordinary order type
//	SO-200 gear oil, 90% returned, pitch drive order type, small turbine
//	SO-300 FC oil, issue only, under its reduced threshold
//	SO-400 FC oil, 95% returned, turbine missing from the installed base
func WindFarmRows() []entities.ConsumptionRow {
	return []entities.ConsumptionRow{
		movement("SO-100", "51028446", "291", "100", "WTG-01", "ZM01"),
		movement("SO-100", "51028446", "653", "-85", "WTG-01", "ZM01"),
		movement("SO-200", "51028446", "291", "50", "WTG-02", "PD_OIL_CHG_ORDER"),
		movement("SO-200", "51028446", "653", "-45", "WTG-02", "PD_OIL_CHG_ORDER"),
		movement("SO-300", "51033078", "291", "20", "WTG-01", "ZM02"),
		movement("SO-400", "51055772", "291", "10", "WTG-03", "ZM02"),
		movement("SO-400", "51055772", "653", "-9.5", "WTG-03", "ZM02"),
	}
}

// WindFarmTurbines is the installed base of the scenario. WTG-03 is absent.
func WindFarmTurbines() []entities.InstalledBase {
	return []entities.InstalledBase{
		{FunctionalLocation: "WTG-01", WTGModel: "S111", State: "Tamil Nadu", Area: "South", Site: "Kayathar"},
		{FunctionalLocation: "WTG-02", WTGModel: "S82", State: "Gujarat", Area: "West", Site: "Bhuj"},
	}
}

// WindFarmFCThresholds are the reduced FC capacities of the scenario
func WindFarmFCThresholds() []memory.FCThreshold {
	return []memory.FCThreshold{
		{Material: "51033078", WTGModel: "S111", TenPercentReducedValue: decimal.NewFromInt(30)},
		{Material: "51055772", WTGModel: "S111", TenPercentReducedValue: decimal.NewFromInt(30)},
	}
}

// WindFarmOilModels are the drive oil capacities of the scenario
func WindFarmOilModels() []memory.OilModel {
	return []memory.OilModel{
		{WTGModel: "S111", YawDriveOilPerWTG: decimal.NewFromInt(120), PitchDriveOilPerWTG: decimal.NewFromInt(150)},
		{WTGModel: "S82", YawDriveOilPerWTG: decimal.NewFromInt(40), PitchDriveOilPerWTG: decimal.NewFromInt(60)},
	}
}

// BuildWindFarmScenario loads the wind farm scenario into memory repositories
func BuildWindFarmScenario() *csvrepo.Scenario {
	rows := WindFarmRows()
	scenario := &csvrepo.Scenario{
		Consumption:   memory.NewConsumptionRepository(len(rows)),
		InstalledBase: memory.NewInstalledBaseRepository(2),
		Capacity:      memory.NewCapacityRepository(),
	}
	scenario.Consumption.LoadRows(rows)
	scenario.InstalledBase.LoadInstalledBase(WindFarmTurbines())
	for _, t := range WindFarmFCThresholds() {
		scenario.Capacity.AddFCThreshold(t)
	}
	for _, m := range WindFarmOilModels() {
		scenario.Capacity.AddOilModel(m)
	}
	return scenario
}

// WriteWindFarmCSV writes the wind farm scenario as table exports in dir
func WriteWindFarmCSV(dir string) error {
	consumption := [][]string{{
		"service_order_number", "material", "move_type", "quantity", "unit",
		"functional_location", "plant", "stor_loc", "document_number", "val_type",
		"posting_date", "entry_date", "ztext1", "txtmd", "order_type",
	}}
	for _, r := range WindFarmRows() {
		consumption = append(consumption, []string{
			string(r.ServiceOrderNumber), string(r.Material), string(r.MoveType), r.Quantity.String(), r.Unit,
			r.FunctionalLocation, r.Plant, r.StorageLocation, r.DocumentNumber, r.ValType,
			r.PostingDate, r.EntryDate, r.OrderStatus, r.MaterialDescription, r.OrderType,
		})
	}

	installed := [][]string{{"functional_location", "wtg_model", "state", "area", "site"}}
	for _, t := range WindFarmTurbines() {
		installed = append(installed, []string{t.FunctionalLocation, t.WTGModel, t.State, t.Area, t.Site})
	}

	thresholds := [][]string{{"material_code", "wtg_model", "ten_percent_reduced_value"}}
	for _, t := range WindFarmFCThresholds() {
		thresholds = append(thresholds, []string{string(t.Material), t.WTGModel, t.TenPercentReducedValue.String()})
	}

	models := [][]string{{"wtg_model", "total_yaw_drive_oil_per_wtg", "total_pitch_drive_oil_per_wtg"}}
	for _, m := range WindFarmOilModels() {
		models = append(models, []string{m.WTGModel, m.YawDriveOilPerWTG.String(), m.PitchDriveOilPerWTG.String()})
	}

	files := map[string][][]string{
		csvrepo.ConsumptionFile:   consumption,
		csvrepo.InstalledBaseFile: installed,
		csvrepo.FCThresholdFile:   thresholds,
		csvrepo.OilModelFile:      models,
	}
	for name, records := range files {
		if err := writeCSV(filepath.Join(dir, name), records); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}
