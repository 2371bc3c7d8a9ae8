package memory

import (
	"context"
	"sort"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// ConsumptionRepository provides in-memory consumption rows
type ConsumptionRepository struct {
	rows []entities.ConsumptionRow
}

// NewConsumptionRepository creates a new in-memory consumption repository
func NewConsumptionRepository(expectedRows int) *ConsumptionRepository {
	return &ConsumptionRepository{
		rows: make([]entities.ConsumptionRow, 0, expectedRows),
	}
}

// Verify interface compliance
var _ repositories.ConsumptionRepository = (*ConsumptionRepository)(nil)

// LoadRows loads rows into the repository
func (r *ConsumptionRepository) LoadRows(rows []entities.ConsumptionRow) {
	r.rows = append(r.rows, rows...)
}

// AddRow adds a single row to the repository
func (r *ConsumptionRepository) AddRow(row entities.ConsumptionRow) {
	r.rows = append(r.rows, row)
}

// Rows returns a copy of every stored row
func (r *ConsumptionRepository) Rows() []entities.ConsumptionRow {
	return append([]entities.ConsumptionRow(nil), r.rows...)
}

// Len returns the number of stored rows
func (r *ConsumptionRepository) Len() int {
	return len(r.rows)
}

// Clear removes every row and returns how many were removed
func (r *ConsumptionRepository) Clear() int64 {
	n := int64(len(r.rows))
	r.rows = r.rows[:0]
	return n
}

// DeleteOrder removes every row of an order and returns how many were removed
func (r *ConsumptionRepository) DeleteOrder(order entities.ServiceOrderNumber) int64 {
	kept := r.rows[:0]
	var removed int64
	for _, row := range r.rows {
		if row.ServiceOrderNumber == order {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return removed
}

// FetchBatch applies the same filter and ordering as the SQL query: the
// order-type prefixes are applied per row, then orders without an allowlisted
// material are dropped.
func (r *ConsumptionRepository) FetchBatch(
	ctx context.Context,
	filter entities.ExtractionFilter,
	offset, limit int,
) ([]entities.ConsumptionRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	admitted := make([]entities.ConsumptionRow, 0, len(r.rows))
	qualifying := make(map[entities.ServiceOrderNumber]bool)
	for _, row := range r.rows {
		if !filter.Admits(row) {
			continue
		}
		admitted = append(admitted, row)
		if filter.HasMaterial(row.Material) {
			qualifying[row.ServiceOrderNumber] = true
		}
	}

	selected := admitted[:0]
	for _, row := range admitted {
		if qualifying[row.ServiceOrderNumber] {
			selected = append(selected, row)
		}
	}
	SortRows(selected)

	if offset >= len(selected) {
		return []entities.ConsumptionRow{}, nil
	}
	end := offset + limit
	if end > len(selected) {
		end = len(selected)
	}
	return append([]entities.ConsumptionRow(nil), selected[offset:end]...), nil
}

// SortRows orders rows by service order number, document number, material
// and move type
func SortRows(rows []entities.ConsumptionRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ServiceOrderNumber != b.ServiceOrderNumber {
			return a.ServiceOrderNumber < b.ServiceOrderNumber
		}
		if a.DocumentNumber != b.DocumentNumber {
			return a.DocumentNumber < b.DocumentNumber
		}
		if a.Material != b.Material {
			return a.Material < b.Material
		}
		return a.MoveType < b.MoveType
	})
}
