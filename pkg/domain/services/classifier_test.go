package services

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMidRange(t *testing.T) {
	tests := []struct {
		p        string
		expected bool
	}{
		{"85", true},
		{"80", false},
		{"100", false},
		{"80.0001", true},
		{"99.9999", true},
		{"0", false},
		{"120", false},
	}
	for _, tt := range tests {
		if got := MidRange(d(tt.p), d("80"), d("100")); got != tt.expected {
			t.Errorf("MidRange(%s) = %v, want %v", tt.p, got, tt.expected)
		}
	}
}

func TestHighOrZeroWithCapacity(t *testing.T) {
	tests := []struct {
		name      string
		p         string
		absIssue  string
		threshold string
		expected  bool
	}{
		{"high_under_capacity", "85", "100", "200", true},
		{"high_over_capacity", "85", "100", "90", false},
		{"equal_to_capacity", "85", "200", "200", false},
		{"zero_under_capacity", "0", "100", "200", true},
		{"above_hundred", "150", "100", "200", true},
		{"low", "50", "100", "200", false},
		{"exactly_lower", "80", "100", "200", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HighOrZeroWithCapacity(d(tt.p), d("80"), d(tt.absIssue), d(tt.threshold))
			if got != tt.expected {
				t.Errorf("HighOrZeroWithCapacity(%s, %s, %s) = %v, want %v",
					tt.p, tt.absIssue, tt.threshold, got, tt.expected)
			}
		})
	}
}

func TestDualCapacity(t *testing.T) {
	tests := []struct {
		name     string
		p        string
		absIssue string
		a, b     string
		expected bool
	}{
		{"mid_under_both", "85", "100", "200", "200", true},
		{"zero_under_both", "0", "100", "200", "150", true},
		{"over_yaw", "85", "100", "90", "200", false},
		{"over_pitch", "85", "100", "200", "90", false},
		{"above_range", "100", "10", "200", "200", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DualCapacity(d(tt.p), d("80"), d("100"), d(tt.absIssue), d(tt.a), d(tt.b))
			if got != tt.expected {
				t.Errorf("DualCapacity = %v, want %v", got, tt.expected)
			}
		})
	}
}

func enriched(issue, ret, orderType string) entities.EnrichedOrder {
	first := entities.ConsumptionRow{
		ServiceOrderNumber: "SO1",
		Material:           "51028446",
		MoveType:           "291",
		OrderType:          orderType,
		PostingDate:        "15-03-2024",
		Plant:              "P100",
	}
	acc := entities.NewOrderAccumulator(first)
	acc.IssueTotal = d(issue)
	acc.ReturnTotal = d(ret)
	acc.RowCount = 2
	return entities.EnrichedOrder{OrderAccumulator: acc}
}

func TestEvaluate_RequiredPrefix(t *testing.T) {
	rule := entities.DefaultRule(entities.RuleMidRange)
	rule.RequiredOrderTypePrefix = "PD_OIL_CHG_ORDER"

	if ok, _ := Evaluate(rule, enriched("100", "-85", "PD_OIL_CHG_ORDER")); !ok {
		t.Error("Order with the required prefix should be included")
	}
	ok, reason := Evaluate(rule, enriched("100", "-85", "pd_oil_chg_order"))
	if ok {
		t.Error("Prefix match is case-sensitive")
	}
	if !strings.Contains(reason, "lacks prefix") {
		t.Errorf("Unexpected reason %q", reason)
	}
}

func TestEvaluate_CapacityRulesNeedThresholds(t *testing.T) {
	order := enriched("100", "-85", "")
	if ok, _ := Evaluate(entities.DefaultRule(entities.RuleHighOrZeroWithCapacity), order); ok {
		t.Error("Missing primary threshold must exclude the order")
	}

	order.Capacity = &entities.CapacityThreshold{Primary: d("200")}
	if ok, _ := Evaluate(entities.DefaultRule(entities.RuleDualCapacity), order); ok {
		t.Error("Missing secondary threshold must exclude the order")
	}

	order.Capacity.Secondary = decimal.NewNullDecimal(d("200"))
	if ok, reason := Evaluate(entities.DefaultRule(entities.RuleDualCapacity), order); !ok {
		t.Errorf("Expected inclusion, got %q", reason)
	}
}

func TestClassify_BuildsRecord(t *testing.T) {
	order := enriched("100", "-85", "ZM01")
	order.InstalledBase = &entities.InstalledBase{WTGModel: "M1", Site: "S1", State: "GJ", Area: "North"}
	order.Capacity = &entities.CapacityThreshold{Primary: d("200")}

	def := entities.ReportDefinition{
		Key:            "fc-topup",
		Component:      "FC",
		Classification: "FC_TOPUP ORDER",
		Rule:           entities.DefaultRule(entities.RuleHighOrZeroWithCapacity),
		StampInsertion: true,
	}

	decision := Classify(order, def, "2024-03-20")
	if decision.Outcome != entities.Included || decision.Record == nil {
		t.Fatalf("Expected included record, got %s (%s)", decision.Outcome, decision.Reason)
	}
	record := decision.Record
	if !record.Quantity.Equal(d("15")) || !record.PercentageIssueReturn.Equal(d("85")) {
		t.Errorf("Unexpected totals: quantity %s, percentage %s", record.Quantity, record.PercentageIssueReturn)
	}
	if record.Site != "S1" || record.WTGModel != "M1" || record.Classification != "FC_TOPUP ORDER" {
		t.Errorf("Unexpected descriptive fields %+v", record)
	}
	if record.DateOfInsertion != "2024-03-20" {
		t.Errorf("Expected insertion date, got %q", record.DateOfInsertion)
	}
	if !record.PrimaryThreshold.Valid || record.SecondaryThreshold.Valid {
		t.Errorf("Unexpected thresholds %v / %v", record.PrimaryThreshold, record.SecondaryThreshold)
	}
}

func TestClassify_Excluded(t *testing.T) {
	decision := Classify(enriched("100", "-50", ""), entities.ReportDefinition{Rule: entities.DefaultRule(entities.RuleMidRange)}, "")
	if decision.Outcome != entities.ExcludedByRule || decision.Record != nil {
		t.Errorf("Expected exclusion without a record, got %+v", decision)
	}
	if decision.Reason == "" {
		t.Error("Exclusion should carry a reason")
	}
}
