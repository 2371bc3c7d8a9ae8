// Package reports holds the built-in report definitions. Each report is
// configuration for the shared pipeline, never a separate code path.
package reports

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// Built-in report keys
const (
	GBOilChange  entities.ReportKey = "gb-oil-change"
	FCOilChange  entities.ReportKey = "fc-oil-change"
	FCTopUp      entities.ReportKey = "fc-topup"
	PDOilChange  entities.ReportKey = "pd-oil-change"
	YDOilChange  entities.ReportKey = "yd-oil-change"
	YDPDTopUp    entities.ReportKey = "ydpd-topup"
	gearOilGrade                    = "51028446"
)

var (
	gbMaterials = []entities.MaterialCode{
		"51028446", "51028444", "51028447", "51028445", "51028449",
		"51079898", "51077849", "51077531", "51028448", "51063867",
	}
	fcMaterials = []entities.MaterialCode{"51033078", "51055772", "51107303"}
)

func col(field, column string) entities.ColumnMapping {
	return entities.ColumnMapping{Field: field, Column: column}
}

func dateCol(field, column string) entities.ColumnMapping {
	return entities.ColumnMapping{Field: field, Column: column, ConvertDate: true}
}

// gbColumns are the gb_oil_change columns, named after the record fields
func gbColumns() []entities.ColumnMapping {
	return []entities.ColumnMapping{
		col(entities.FieldServiceOrderNumber, "SERVICE_ORDER_NUMBER"),
		col(entities.FieldFunctionalLocation, "FUNCTIONAL_LOCATION"),
		col(entities.FieldQuantity, "QUANTITY"),
		col(entities.FieldIssue, "ISSUE"),
		col(entities.FieldReturn, "RETURN"),
		col(entities.FieldPercentageIssueReturn, "PERCENTAGE_ISSUE_RETURN"),
		col(entities.FieldMaterial, "MATERIAL"),
		col(entities.FieldOrderType, "ORDER_TYPE"),
		col(entities.FieldPlant, "PLANT"),
		col(entities.FieldMoveType, "MOVE_TYPE"),
		col(entities.FieldPostingDate, "POSTING_DATE"),
		col(entities.FieldEntryDate, "ENTRY_DATE"),
		col(entities.FieldOrderStatus, "ZTEXT1"),
		col(entities.FieldMaterialDescription, "MATERIAL_DESCRIPTION"),
		col(entities.FieldComponent, "Component"),
		col(entities.FieldClassification, "Classification"),
	}
}

// IdentityColumns is the full record written under its own field names
func IdentityColumns() []entities.ColumnMapping {
	return []entities.ColumnMapping{
		col(entities.FieldServiceOrderNumber, "SERVICE_ORDER_NUMBER"),
		col(entities.FieldFunctionalLocation, "FUNCTIONAL_LOCATION"),
		col(entities.FieldQuantity, "QUANTITY"),
		col(entities.FieldTotalQuantity, "TOTAL_QUANTITY"),
		col(entities.FieldIssue, "ISSUE"),
		col(entities.FieldReturn, "RETURN"),
		col(entities.FieldPercentageIssueReturn, "PERCENTAGE_ISSUE_RETURN"),
		col(entities.FieldClassification, "CLASSIFICATION"),
		col(entities.FieldComponent, "Component"),
		col(entities.FieldState, "STATE"),
		col(entities.FieldArea, "AREA"),
		col(entities.FieldSite, "SITE"),
		col(entities.FieldWTGModel, "WTG_Model"),
		col(entities.FieldStorageLocation, "STOR_LOC"),
		col(entities.FieldDocumentNumber, "DOCUMENT_NUMBER"),
		col(entities.FieldMaterial, "MATERIAL"),
		col(entities.FieldMaterialDescription, "MATERIAL_DESCRIPTION"),
		col(entities.FieldPlant, "PLANT"),
		col(entities.FieldMoveType, "MOVE_TYPE"),
		col(entities.FieldValType, "VAL_TYPE"),
		col(entities.FieldPostingDate, "POSTING_DATE"),
		col(entities.FieldEntryDate, "ENTRY_DATE"),
		col(entities.FieldOrderStatus, "ZTEXT1"),
		col(entities.FieldCurrentOilChangeDate, "current_Oil_change_date"),
		col(entities.FieldOrderType, "ORDER_TYPE"),
	}
}

// PortalColumns is the lubrication portal layout with converted dates
func PortalColumns() []entities.ColumnMapping {
	return []entities.ColumnMapping{
		col(entities.FieldServiceOrderNumber, "Order No"),
		col(entities.FieldFunctionalLocation, "Function Loc"),
		col(entities.FieldIssue, "Issue"),
		col(entities.FieldReturn, "Return"),
		col(entities.FieldPercentageIssueReturn, "Return Percentage"),
		col(entities.FieldPlant, "Plant"),
		col(entities.FieldState, "State"),
		col(entities.FieldArea, "Area"),
		col(entities.FieldSite, "Site"),
		col(entities.FieldMaterial, "Material"),
		col(entities.FieldStorageLocation, "Storage Location"),
		col(entities.FieldMoveType, "Move Type"),
		col(entities.FieldDocumentNumber, "Material Document"),
		col(entities.FieldMaterialDescription, "Description"),
		col(entities.FieldValType, "Val Type"),
		dateCol(entities.FieldPostingDate, "Posting Date"),
		dateCol(entities.FieldEntryDate, "Entry Date"),
		col(entities.FieldQuantity, "Quantity"),
		col(entities.FieldOrderType, "Order Type"),
		col(entities.FieldWTGModel, "WTG Model"),
		dateCol(entities.FieldCurrentOilChangeDate, "Current Oil Change Date"),
		col(entities.FieldOrderStatus, "Order Status"),
		col(entities.FieldDateOfInsertion, "date_of_insertion"),
	}
}

// portalDocumentColumns is the short portal layout, dates kept as read
func portalDocumentColumns() []entities.ColumnMapping {
	return []entities.ColumnMapping{
		col(entities.FieldServiceOrderNumber, "Order No"),
		col(entities.FieldFunctionalLocation, "Function Loc"),
		col(entities.FieldIssue, "Issue"),
		col(entities.FieldReturn, "Return"),
		col(entities.FieldPercentageIssueReturn, "Return Percentage"),
		col(entities.FieldPlant, "Plant"),
		col(entities.FieldMaterial, "Material"),
		col(entities.FieldStorageLocation, "Storage Location"),
		col(entities.FieldMoveType, "Move Type"),
		col(entities.FieldDocumentNumber, "Material Document"),
		col(entities.FieldValType, "Val Type"),
		col(entities.FieldPostingDate, "Posting Date"),
		col(entities.FieldEntryDate, "Entry Date"),
	}
}

// ydpdColumns extends the identity layout with both oil thresholds
func ydpdColumns() []entities.ColumnMapping {
	return append(IdentityColumns(),
		col(entities.FieldPrimaryThreshold, "total_yaw_drive_oil_per_wtg"),
		col(entities.FieldSecondaryThreshold, "total_pitch_drive_oil_per_wtg"),
	)
}

// Builtin returns fresh copies of every built-in report definition
func Builtin() []entities.ReportDefinition {
	pdRule := entities.DefaultRule(entities.RuleMidRange)
	pdRule.RequiredOrderTypePrefix = "PD_OIL_CHG_ORDER"

	return []entities.ReportDefinition{
		{
			Key:            GBOilChange,
			Description:    "Gearbox oil change orders",
			Component:      "GB",
			Classification: "GB_OIL_CHANGE ORDER",
			Filter: entities.ExtractionFilter{
				Materials:                 gbMaterials,
				ExcludedOrderTypePrefixes: []string{"yd", "pd"},
			},
			Rule:    entities.DefaultRule(entities.RuleMidRange),
			Sink:    entities.SinkTable,
			Table:   "gb_oil_change",
			Columns: gbColumns(),
		},
		{
			Key:            FCOilChange,
			Description:    "FC oil change orders",
			Component:      "FC",
			Classification: "FC_OIL_CHANGE ORDER",
			Filter: entities.ExtractionFilter{
				Materials:                 fcMaterials,
				ExcludedOrderTypePrefixes: []string{"yd", "pd"},
			},
			Rule:    entities.DefaultRule(entities.RuleMidRange),
			Sink:    entities.SinkTable,
			Table:   "fc_oil_change",
			Columns: portalDocumentColumns(),
		},
		{
			Key:            FCTopUp,
			Description:    "FC top-up orders below the reduced capacity threshold",
			Component:      "FC",
			Classification: "FC_TOPUP ORDER",
			Filter: entities.ExtractionFilter{
				Materials:                 fcMaterials,
				ExcludedOrderTypePrefixes: []string{"yd", "pd", "GB", "FC"},
			},
			Lookups:        entities.LookupPolicy{InstalledBase: true, Capacity: entities.CapacityFCThreshold},
			Rule:           entities.DefaultRule(entities.RuleHighOrZeroWithCapacity),
			Sink:           entities.SinkTable,
			Table:          "fc_topup",
			Columns:        PortalColumns(),
			StampInsertion: true,
		},
		{
			Key:            PDOilChange,
			Description:    "Pitch drive oil change orders",
			Component:      "PD",
			Classification: "PD_OIL_CHG_ORDER",
			OrderLabel:     "PD_OIL_CHG_ORDER",
			Filter: entities.ExtractionFilter{
				Materials:                 []entities.MaterialCode{gearOilGrade},
				ExcludedOrderTypePrefixes: []string{"GB", "FC", "yd"},
			},
			Lookups: entities.LookupPolicy{InstalledBase: true},
			Rule:    pdRule,
			Sink:    entities.SinkTable,
			Table:   "pd_oil_change",
			Columns: IdentityColumns(),
		},
		{
			Key:            YDOilChange,
			Description:    "Yaw drive oil change orders",
			Component:      "YD",
			Classification: "YD_OIL_CHG_ORDER",
			OrderLabel:     "YD",
			Filter: entities.ExtractionFilter{
				Materials:                 []entities.MaterialCode{gearOilGrade},
				ExcludedOrderTypePrefixes: []string{"GB", "FC", "pd"},
			},
			Rule:     entities.DefaultRule(entities.RuleMidRange),
			Sink:     entities.SinkJSONFile,
			FilePath: "results-yd_oil_chg_check.json",
			Columns:  IdentityColumns(),
		},
		{
			Key:            YDPDTopUp,
			Description:    "Yaw and pitch drive top-up orders below both drive capacities",
			Component:      "YDPD",
			Classification: "ydpd top up",
			Filter: entities.ExtractionFilter{
				Materials:                 []entities.MaterialCode{gearOilGrade},
				ExcludedOrderTypePrefixes: []string{"yd", "pd", "GB", "FC"},
			},
			Lookups: entities.LookupPolicy{InstalledBase: true, Capacity: entities.CapacityOilModel},
			Rule:    entities.DefaultRule(entities.RuleDualCapacity),
			Sink:    entities.SinkTable,
			Table:   "ydpd_topup",
			Columns: ydpdColumns(),
		},
	}
}

// Override replaces parts of a built-in definition. Zero values keep the default.
type Override struct {
	Materials                 []string `yaml:"materials"`
	ExcludedOrderTypePrefixes []string `yaml:"excluded_order_type_prefixes"`
	Table                     string   `yaml:"table"`
	Sink                      string   `yaml:"sink"`
	FilePath                  string   `yaml:"file_path"`
	Columns                   string   `yaml:"columns"`
}

// Catalog indexes report definitions by key
type Catalog struct {
	defs map[entities.ReportKey]entities.ReportDefinition
}

// NewCatalog builds a catalog of the built-in definitions
func NewCatalog() *Catalog {
	c := &Catalog{defs: make(map[entities.ReportKey]entities.ReportDefinition)}
	for _, def := range Builtin() {
		c.defs[def.Key] = def
	}
	return c
}

// Get returns the definition for key
func (c *Catalog) Get(key entities.ReportKey) (entities.ReportDefinition, error) {
	def, ok := c.defs[key]
	if !ok {
		return entities.ReportDefinition{}, fmt.Errorf("unknown report: %s", key)
	}
	return def, nil
}

// Has reports whether key is defined
func (c *Catalog) Has(key entities.ReportKey) bool {
	_, ok := c.defs[key]
	return ok
}

// Keys returns every report key in sorted order
func (c *Catalog) Keys() []entities.ReportKey {
	keys := make([]entities.ReportKey, 0, len(c.defs))
	for k := range c.defs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Definitions returns every definition in key order
func (c *Catalog) Definitions() []entities.ReportDefinition {
	defs := make([]entities.ReportDefinition, 0, len(c.defs))
	for _, k := range c.Keys() {
		defs = append(defs, c.defs[k])
	}
	return defs
}

// Apply merges an override into the definition for key and validates the result
func (c *Catalog) Apply(key entities.ReportKey, o Override) error {
	def, err := c.Get(key)
	if err != nil {
		return err
	}

	if len(o.Materials) > 0 {
		def.Filter.Materials = make([]entities.MaterialCode, len(o.Materials))
		for i, m := range o.Materials {
			def.Filter.Materials[i] = entities.MaterialCode(m)
		}
	}
	if o.ExcludedOrderTypePrefixes != nil {
		def.Filter.ExcludedOrderTypePrefixes = append([]string(nil), o.ExcludedOrderTypePrefixes...)
	}
	if o.Table != "" {
		def.Table = o.Table
	}
	if o.Sink != "" {
		def.Sink = entities.SinkKind(o.Sink)
	}
	if o.FilePath != "" {
		def.FilePath = o.FilePath
	}
	switch o.Columns {
	case "":
	case "identity":
		def.Columns = IdentityColumns()
	case "portal":
		def.Columns = PortalColumns()
	default:
		return fmt.Errorf("report %s: unknown column layout %q", key, o.Columns)
	}

	if err := def.Validate(); err != nil {
		return err
	}
	c.defs[key] = def
	return nil
}

// SetRuleBounds replaces the percentage bounds of every definition
func (c *Catalog) SetRuleBounds(lower, upper float64) {
	for k, def := range c.defs {
		def.Rule.Lower = decimal.NewFromFloat(lower)
		def.Rule.Upper = decimal.NewFromFloat(upper)
		c.defs[k] = def
	}
}

// Tables returns the destination tables of the table-sink reports
func (c *Catalog) Tables() []string {
	var tables []string
	for _, def := range c.Definitions() {
		if def.Sink == entities.SinkTable {
			tables = append(tables, def.Table)
		}
	}
	return tables
}
