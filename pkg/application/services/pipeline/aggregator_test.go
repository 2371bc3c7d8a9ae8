package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

const gearOil = "51028446"

func movement(son, material, moveType, qty string) entities.ConsumptionRow {
	return entities.ConsumptionRow{
		ServiceOrderNumber: entities.ServiceOrderNumber(son),
		Material:           entities.MaterialCode(material),
		MoveType:           entities.MoveType(moveType),
		Quantity:           decimal.RequireFromString(qty),
		FunctionalLocation: "FL-" + son,
	}
}

func gearOilFilter() entities.ExtractionFilter {
	return entities.ExtractionFilter{Materials: []entities.MaterialCode{gearOil}}
}

func TestAggregator_IgnoresUnknownMoveTypes(t *testing.T) {
	agg := NewAggregator(gearOilFilter())
	agg.Add([]entities.ConsumptionRow{
		movement("SO1", gearOil, "291", "100"),
		movement("SO1", gearOil, "261", "500"),
		movement("SO1", gearOil, "101", "-40"),
		movement("SO1", gearOil, "653", "-85"),
	})

	acc, ok := agg.Order("SO1")
	if !ok {
		t.Fatal("Expected accumulator for SO1")
	}
	if !acc.IssueTotal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected issue 100, got %s", acc.IssueTotal)
	}
	if !acc.ReturnTotal.Equal(decimal.NewFromInt(-85)) {
		t.Errorf("Expected return -85, got %s", acc.ReturnTotal)
	}
}

func TestAggregator_Percentage(t *testing.T) {
	tests := []struct {
		name     string
		rows     []entities.ConsumptionRow
		expected string
	}{
		{
			name: "issue 100 return -85",
			rows: []entities.ConsumptionRow{
				movement("SO1", gearOil, "291", "100"),
				movement("SO1", gearOil, "653", "-85"),
			},
			expected: "85",
		},
		{
			name: "no issue",
			rows: []entities.ConsumptionRow{
				movement("SO1", gearOil, "653", "-85"),
			},
			expected: "0",
		},
		{
			name: "reversals on both sides",
			rows: []entities.ConsumptionRow{
				movement("SO1", gearOil, "291", "120"),
				movement("SO1", gearOil, "292", "-20"),
				movement("SO1", gearOil, "653", "-95"),
				movement("SO1", gearOil, "654", "5"),
			},
			expected: "90",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(gearOilFilter())
			agg.Add(tt.rows)
			acc, _ := agg.Order("SO1")
			got := acc.PercentageIssueReturn()
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("Expected percentage %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestAggregator_TotalQuantity(t *testing.T) {
	agg := NewAggregator(gearOilFilter())
	agg.Add([]entities.ConsumptionRow{
		movement("SO1", gearOil, "291", "100"),
		movement("SO1", gearOil, "653", "-85"),
	})
	acc, _ := agg.Order("SO1")
	if !acc.TotalQuantity().Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected total 15, got %s", acc.TotalQuantity())
	}
}

func TestAggregator_BatchBoundaryInvariance(t *testing.T) {
	rows := []entities.ConsumptionRow{
		movement("SO1", gearOil, "291", "100"),
		movement("SO1", gearOil, "653", "-85"),
		movement("SO2", gearOil, "291", "40.5"),
		movement("SO2", "99999999", "291", "7"),
		movement("SO2", gearOil, "653", "-10.25"),
		movement("SO3", gearOil, "654", "3"),
		movement("SO1", gearOil, "292", "-5"),
	}

	whole := NewAggregator(gearOilFilter())
	whole.Add(rows)

	for _, size := range []int{1, 2, 3, 5} {
		split := NewAggregator(gearOilFilter())
		for start := 0; start < len(rows); start += size {
			end := start + size
			if end > len(rows) {
				end = len(rows)
			}
			split.Add(rows[start:end])
		}

		if diff := cmp.Diff(summarize(whole), summarize(split)); diff != "" {
			t.Errorf("batch size %d changed the result (-whole +split):\n%s", size, diff)
		}
		if split.RowsSeen() != whole.RowsSeen() || split.RowsSkipped() != whole.RowsSkipped() {
			t.Errorf("batch size %d changed the row counters", size)
		}
	}
}

type orderSummary struct {
	Order   entities.ServiceOrderNumber
	Issue   string
	Return  string
	Rows    int
	Percent string
}

func summarize(agg *Aggregator) []orderSummary {
	var out []orderSummary
	for _, acc := range agg.Orders() {
		out = append(out, orderSummary{
			Order:   acc.ServiceOrderNumber,
			Issue:   acc.IssueTotal.String(),
			Return:  acc.ReturnTotal.String(),
			Rows:    acc.RowCount,
			Percent: acc.PercentageIssueReturn().StringFixed(6),
		})
	}
	return out
}

func TestAggregator_FirstSeenFieldsAndOrder(t *testing.T) {
	first := movement("SO2", gearOil, "291", "10")
	first.Plant = "P100"
	first.OrderType = "ZM01"
	later := movement("SO2", gearOil, "653", "-9")
	later.Plant = "P200"
	later.OrderType = "ZM02"

	agg := NewAggregator(gearOilFilter())
	agg.Add([]entities.ConsumptionRow{first, movement("SO1", gearOil, "291", "1")})
	agg.Add([]entities.ConsumptionRow{later})

	orders := agg.Orders()
	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(orders))
	}
	if orders[0].ServiceOrderNumber != "SO2" || orders[1].ServiceOrderNumber != "SO1" {
		t.Errorf("Orders not in first-seen order: %s, %s", orders[0].ServiceOrderNumber, orders[1].ServiceOrderNumber)
	}
	if orders[0].First.Plant != "P100" || orders[0].First.OrderType != "ZM01" {
		t.Errorf("Descriptive fields overwritten: %+v", orders[0].First)
	}
	if orders[0].RowCount != 2 {
		t.Errorf("Expected 2 contributing rows, got %d", orders[0].RowCount)
	}
}

func TestAggregator_SkipsMaterialsOutsideAllowlist(t *testing.T) {
	agg := NewAggregator(gearOilFilter())
	agg.Add([]entities.ConsumptionRow{
		movement("SO1", "99999999", "291", "100"),
		movement("SO2", gearOil, "291", "100"),
	})

	if _, ok := agg.Order("SO1"); ok {
		t.Error("Order with only non-allowlisted rows should not be created")
	}
	if agg.RowsSeen() != 2 || agg.RowsSkipped() != 1 {
		t.Errorf("Expected 2 seen and 1 skipped, got %d and %d", agg.RowsSeen(), agg.RowsSkipped())
	}
}
