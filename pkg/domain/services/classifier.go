package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// MidRange reports lower < p < upper
func MidRange(p, lower, upper decimal.Decimal) bool {
	return p.GreaterThan(lower) && p.LessThan(upper)
}

// HighOrZeroWithCapacity reports (p > lower or p == 0) and |issue| < threshold
func HighOrZeroWithCapacity(p, lower, absIssue, threshold decimal.Decimal) bool {
	return (p.GreaterThan(lower) || p.IsZero()) && absIssue.LessThan(threshold)
}

// DualCapacity reports (lower < p < upper or p == 0) and |issue| below both thresholds
func DualCapacity(p, lower, upper, absIssue, thresholdA, thresholdB decimal.Decimal) bool {
	return (MidRange(p, lower, upper) || p.IsZero()) &&
		absIssue.LessThan(thresholdA) &&
		absIssue.LessThan(thresholdB)
}

// Evaluate applies the rule to an enriched order. The reason explains an exclusion.
func Evaluate(rule entities.Rule, order entities.EnrichedOrder) (bool, string) {
	if rule.RequiredOrderTypePrefix != "" &&
		!strings.HasPrefix(order.First.OrderType, rule.RequiredOrderTypePrefix) {
		return false, fmt.Sprintf("order type %q lacks prefix %s", order.First.OrderType, rule.RequiredOrderTypePrefix)
	}

	p := order.PercentageIssueReturn()
	absIssue := order.AbsIssue()

	switch rule.Kind {
	case entities.RuleMidRange:
		if MidRange(p, rule.Lower, rule.Upper) {
			return true, ""
		}
		return false, fmt.Sprintf("percentage %s outside (%s, %s)", p.StringFixed(2), rule.Lower, rule.Upper)

	case entities.RuleHighOrZeroWithCapacity:
		if order.Capacity == nil {
			return false, "capacity threshold missing"
		}
		if HighOrZeroWithCapacity(p, rule.Lower, absIssue, order.Capacity.Primary) {
			return true, ""
		}
		return false, fmt.Sprintf("percentage %s, |issue| %s against threshold %s",
			p.StringFixed(2), absIssue, order.Capacity.Primary)

	case entities.RuleDualCapacity:
		if order.Capacity == nil || !order.Capacity.Secondary.Valid {
			return false, "dual capacity thresholds missing"
		}
		if DualCapacity(p, rule.Lower, rule.Upper, absIssue, order.Capacity.Primary, order.Capacity.Secondary.Decimal) {
			return true, ""
		}
		return false, fmt.Sprintf("percentage %s, |issue| %s against thresholds %s/%s",
			p.StringFixed(2), absIssue, order.Capacity.Primary, order.Capacity.Secondary.Decimal)

	default:
		return false, fmt.Sprintf("unknown rule %q", rule.Kind)
	}
}

// Classify decides whether an order belongs to the report and builds its record
func Classify(order entities.EnrichedOrder, def entities.ReportDefinition, insertionDate string) entities.Decision {
	decision := entities.Decision{
		ServiceOrderNumber: order.ServiceOrderNumber,
		Percentage:         order.PercentageIssueReturn(),
	}

	ok, reason := Evaluate(def.Rule, order)
	if !ok {
		decision.Outcome = entities.ExcludedByRule
		decision.Reason = reason
		return decision
	}

	record := BuildRecord(order, def)
	if def.StampInsertion {
		record.DateOfInsertion = insertionDate
	}
	decision.Outcome = entities.Included
	decision.Record = &record
	return decision
}

// BuildRecord maps an enriched order onto the destination shape
func BuildRecord(order entities.EnrichedOrder, def entities.ReportDefinition) entities.ClassifiedRecord {
	first := order.First
	record := entities.ClassifiedRecord{
		ServiceOrderNumber:    order.ServiceOrderNumber,
		FunctionalLocation:    first.FunctionalLocation,
		Quantity:              order.TotalQuantity(),
		Issue:                 order.IssueTotal,
		Return:                order.ReturnTotal,
		PercentageIssueReturn: order.PercentageIssueReturn(),
		Classification:        def.Classification,
		Component:             def.Component,
		OrderLabel:            def.OrderLabel,
		StorageLocation:       first.StorageLocation,
		DocumentNumber:        first.DocumentNumber,
		Material:              first.Material,
		MaterialDescription:   first.MaterialDescription,
		Plant:                 first.Plant,
		MoveType:              first.MoveType,
		ValType:               first.ValType,
		PostingDate:           first.PostingDate,
		EntryDate:             first.EntryDate,
		OrderStatus:           first.OrderStatus,
		CurrentOilChangeDate:  first.CurrentOilChangeDate,
		OrderType:             first.OrderType,
	}

	if ib := order.InstalledBase; ib != nil {
		record.State = ib.State
		record.Area = ib.Area
		record.Site = ib.Site
		record.WTGModel = ib.WTGModel
	}
	if c := order.Capacity; c != nil {
		record.PrimaryThreshold = decimal.NewNullDecimal(c.Primary)
		record.SecondaryThreshold = c.Secondary
	}
	return record
}
