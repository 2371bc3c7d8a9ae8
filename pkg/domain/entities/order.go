package entities

import (
	"github.com/shopspring/decimal"
)

// OrderAccumulator folds the movements of a single service order.
// Descriptive fields are taken from the first row and never overwritten.
type OrderAccumulator struct {
	ServiceOrderNumber ServiceOrderNumber
	IssueTotal         decimal.Decimal
	ReturnTotal        decimal.Decimal
	RowCount           int

	// First-seen descriptive fields
	First ConsumptionRow
}

// NewOrderAccumulator starts an accumulator from the first row of an order
func NewOrderAccumulator(first ConsumptionRow) *OrderAccumulator {
	return &OrderAccumulator{
		ServiceOrderNumber: first.ServiceOrderNumber,
		IssueTotal:         decimal.Zero,
		ReturnTotal:        decimal.Zero,
		First:              first,
	}
}

// Apply adds the row quantity to the side selected by its move type
func (a *OrderAccumulator) Apply(row ConsumptionRow) MovementSide {
	side := row.MoveType.Side()
	switch side {
	case SideIssue:
		a.IssueTotal = a.IssueTotal.Add(row.Quantity)
	case SideReturn:
		a.ReturnTotal = a.ReturnTotal.Add(row.Quantity)
	}
	a.RowCount++
	return side
}

var hundred = decimal.NewFromInt(100)

// PercentageIssueReturn is |return / issue| * 100, or zero without issues
func (a *OrderAccumulator) PercentageIssueReturn() decimal.Decimal {
	if a.IssueTotal.IsZero() {
		return decimal.Zero
	}
	return a.ReturnTotal.Div(a.IssueTotal).Abs().Mul(hundred)
}

// TotalQuantity is |issue + return|
func (a *OrderAccumulator) TotalQuantity() decimal.Decimal {
	return a.IssueTotal.Add(a.ReturnTotal).Abs()
}

// AbsIssue is |issue|, the value compared against capacity thresholds
func (a *OrderAccumulator) AbsIssue() decimal.Decimal {
	return a.IssueTotal.Abs()
}
