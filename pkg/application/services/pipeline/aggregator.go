package pipeline

import (
	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// Aggregator folds consumption rows into one accumulator per service order.
// Accumulation is keyed by order number, so batch boundaries do not matter.
type Aggregator struct {
	filter entities.ExtractionFilter
	orders map[entities.ServiceOrderNumber]*entities.OrderAccumulator
	order  []entities.ServiceOrderNumber

	rowsSeen    int
	rowsSkipped int
}

// NewAggregator creates an aggregator for the filter's material allowlist
func NewAggregator(filter entities.ExtractionFilter) *Aggregator {
	return &Aggregator{
		filter: filter,
		orders: make(map[entities.ServiceOrderNumber]*entities.OrderAccumulator),
	}
}

// Add folds one batch. Rows outside the allowlist touch nothing.
func (a *Aggregator) Add(batch []entities.ConsumptionRow) {
	for _, row := range batch {
		a.rowsSeen++
		if !a.filter.HasMaterial(row.Material) {
			a.rowsSkipped++
			continue
		}

		acc, exists := a.orders[row.ServiceOrderNumber]
		if !exists {
			acc = entities.NewOrderAccumulator(row)
			a.orders[row.ServiceOrderNumber] = acc
			a.order = append(a.order, row.ServiceOrderNumber)
		}
		acc.Apply(row)
	}
}

// Orders returns the accumulators in order of first appearance
func (a *Aggregator) Orders() []*entities.OrderAccumulator {
	out := make([]*entities.OrderAccumulator, 0, len(a.order))
	for _, son := range a.order {
		out = append(out, a.orders[son])
	}
	return out
}

// Order returns the accumulator for a service order, if any
func (a *Aggregator) Order(son entities.ServiceOrderNumber) (*entities.OrderAccumulator, bool) {
	acc, ok := a.orders[son]
	return acc, ok
}

// RowsSeen is the number of rows passed to Add
func (a *Aggregator) RowsSeen() int { return a.rowsSeen }

// RowsSkipped is the number of rows dropped by the material allowlist
func (a *Aggregator) RowsSkipped() int { return a.rowsSkipped }
