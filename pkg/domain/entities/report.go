package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReportKey names a report definition
type ReportKey string

// RuleKind selects the classification predicate of a report
type RuleKind string

const (
	// RuleMidRange includes lower < p < upper
	RuleMidRange RuleKind = "mid-range"
	// RuleHighOrZeroWithCapacity includes (p > lower or p == 0) and |issue| < primary
	RuleHighOrZeroWithCapacity RuleKind = "high-or-zero-with-capacity"
	// RuleDualCapacity includes (lower < p < upper or p == 0) and |issue| below both thresholds
	RuleDualCapacity RuleKind = "dual-capacity"
)

// Rule configures a classification predicate
type Rule struct {
	Kind RuleKind
	// Percentage bounds, exclusive
	Lower decimal.Decimal
	Upper decimal.Decimal
	// RequiredOrderTypePrefix is an extra condition on the order type, if set
	RequiredOrderTypePrefix string
}

// DefaultRule builds a rule with the 80/100 bounds all reports share
func DefaultRule(kind RuleKind) Rule {
	return Rule{
		Kind:  kind,
		Lower: decimal.NewFromInt(80),
		Upper: decimal.NewFromInt(100),
	}
}

// NeedsCapacity reports whether the predicate reads thresholds
func (r Rule) NeedsCapacity() bool {
	return r.Kind == RuleHighOrZeroWithCapacity || r.Kind == RuleDualCapacity
}

// LookupPolicy selects the secondary lookups of the enricher
type LookupPolicy struct {
	InstalledBase bool
	Capacity      CapacitySource
}

// SinkKind selects where included records are written
type SinkKind string

const (
	SinkTable    SinkKind = "table"
	SinkJSONFile SinkKind = "json"
)

// ColumnMapping maps a record field to a destination column
type ColumnMapping struct {
	Field       string
	Column      string
	ConvertDate bool
}

// ReportDefinition is one report expressed as configuration
type ReportDefinition struct {
	Key            ReportKey
	Description    string
	Component      string
	Classification string
	OrderLabel     string
	Filter         ExtractionFilter
	Lookups        LookupPolicy
	Rule           Rule
	Sink           SinkKind
	Table          string
	FilePath       string
	Columns        []ColumnMapping
	// StampInsertion fills date_of_insertion with the run date
	StampInsertion bool
}

// Validate checks the definition is internally consistent
func (d ReportDefinition) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("report key cannot be empty")
	}
	if len(d.Filter.Materials) == 0 {
		return fmt.Errorf("report %s: material allowlist cannot be empty", d.Key)
	}
	switch d.Rule.Kind {
	case RuleMidRange, RuleHighOrZeroWithCapacity, RuleDualCapacity:
	default:
		return fmt.Errorf("report %s: unknown rule %q", d.Key, d.Rule.Kind)
	}
	if d.Rule.NeedsCapacity() && d.Lookups.Capacity == CapacityNone {
		return fmt.Errorf("report %s: rule %s needs a capacity lookup", d.Key, d.Rule.Kind)
	}
	if d.Lookups.Capacity != CapacityNone && !d.Lookups.InstalledBase {
		return fmt.Errorf("report %s: capacity lookup needs the installed base model", d.Key)
	}
	if d.Rule.Kind == RuleDualCapacity && d.Lookups.Capacity != CapacityOilModel {
		return fmt.Errorf("report %s: dual-capacity reads two thresholds from %s", d.Key, CapacityOilModel)
	}
	switch d.Sink {
	case SinkTable:
		if d.Table == "" {
			return fmt.Errorf("report %s: table sink needs a table name", d.Key)
		}
		if len(d.Columns) == 0 {
			return fmt.Errorf("report %s: table sink needs a column map", d.Key)
		}
	case SinkJSONFile:
		if d.FilePath == "" {
			return fmt.Errorf("report %s: json sink needs a file path", d.Key)
		}
	default:
		return fmt.Errorf("report %s: unknown sink %q", d.Key, d.Sink)
	}
	return nil
}
