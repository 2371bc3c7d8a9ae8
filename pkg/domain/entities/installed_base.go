package entities

import "github.com/shopspring/decimal"

// InstalledBase is the installed turbine at a functional location
type InstalledBase struct {
	FunctionalLocation string `json:"functional_location"`
	WTGModel           string `json:"wtg_model"`
	State              string `json:"state"`
	Area               string `json:"area"`
	Site               string `json:"site"`
}

// CapacitySource names the table a threshold is read from
type CapacitySource string

const (
	CapacityNone CapacitySource = ""
	// CapacityFCThreshold reads ten_percent_reduced_value by material and model
	CapacityFCThreshold CapacitySource = "fc-threshold"
	// CapacityOilModel reads total yaw and pitch drive oil per WTG by model
	CapacityOilModel CapacitySource = "oil-model"
)

// CapacityThreshold holds one or two oil quantity limits for a model
type CapacityThreshold struct {
	WTGModel  string
	Material  MaterialCode
	Primary   decimal.Decimal
	Secondary decimal.NullDecimal
}

// EnrichedOrder is an accumulator with its secondary lookups resolved
type EnrichedOrder struct {
	*OrderAccumulator
	InstalledBase *InstalledBase
	Capacity      *CapacityThreshold
}
