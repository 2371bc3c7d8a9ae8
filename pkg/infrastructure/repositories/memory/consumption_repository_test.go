package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

func row(son, material, moveType, qty, orderType string) entities.ConsumptionRow {
	return entities.ConsumptionRow{
		ServiceOrderNumber: entities.ServiceOrderNumber(son),
		Material:           entities.MaterialCode(material),
		MoveType:           entities.MoveType(moveType),
		Quantity:           decimal.RequireFromString(qty),
		OrderType:          orderType,
	}
}

func TestConsumptionRepository_FetchBatch_FiltersOrders(t *testing.T) {
	repo := NewConsumptionRepository(8)
	repo.LoadRows([]entities.ConsumptionRow{
		row("SO2", "51028446", "291", "50", "ZM01"),
		row("SO1", "51028446", "291", "100", ""),
		row("SO1", "99999999", "291", "5", ""),
		row("SO3", "99999999", "291", "10", "ZM01"),
		row("SO4", "51028446", "291", "10", "yd_change"),
	})

	filter := entities.ExtractionFilter{
		Materials:                 []entities.MaterialCode{"51028446"},
		ExcludedOrderTypePrefixes: []string{"yd"},
	}

	rows, err := repo.FetchBatch(context.Background(), filter, 0, 10)
	if err != nil {
		t.Fatalf("FetchBatch failed: %v", err)
	}

	// SO3 has no allowlisted material and SO4 is excluded by prefix.
	// SO1 keeps its non-allowlisted row, the aggregator skips it.
	want := []entities.ServiceOrderNumber{"SO1", "SO1", "SO2"}
	if len(rows) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(rows))
	}
	for i, son := range want {
		if rows[i].ServiceOrderNumber != son {
			t.Errorf("Row %d: expected order %s, got %s", i, son, rows[i].ServiceOrderNumber)
		}
	}
}

func TestConsumptionRepository_FetchBatch_Pages(t *testing.T) {
	repo := NewConsumptionRepository(5)
	for _, son := range []string{"SO5", "SO3", "SO1", "SO4", "SO2"} {
		repo.AddRow(row(son, "51028446", "291", "1", ""))
	}
	filter := entities.ExtractionFilter{Materials: []entities.MaterialCode{"51028446"}}
	ctx := context.Background()

	first, err := repo.FetchBatch(ctx, filter, 0, 2)
	if err != nil {
		t.Fatalf("FetchBatch failed: %v", err)
	}
	second, _ := repo.FetchBatch(ctx, filter, 2, 2)
	third, _ := repo.FetchBatch(ctx, filter, 4, 2)
	past, _ := repo.FetchBatch(ctx, filter, 6, 2)

	if len(first) != 2 || len(second) != 2 || len(third) != 1 || len(past) != 0 {
		t.Fatalf("Unexpected page sizes: %d %d %d %d", len(first), len(second), len(third), len(past))
	}
	if first[0].ServiceOrderNumber != "SO1" || third[0].ServiceOrderNumber != "SO5" {
		t.Errorf("Pages are not ordered by service order number")
	}
}

func TestConsumptionRepository_FetchBatch_CancelledContext(t *testing.T) {
	repo := NewConsumptionRepository(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.FetchBatch(ctx, entities.ExtractionFilter{}, 0, 10); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestConsumptionRepository_DeleteOrder(t *testing.T) {
	repo := NewConsumptionRepository(3)
	repo.AddRow(row("SO1", "51028446", "292", "1", ""))
	repo.AddRow(row("SO1", "51028446", "292", "2", ""))
	repo.AddRow(row("SO2", "51028446", "291", "3", ""))

	if removed := repo.DeleteOrder("SO1"); removed != 2 {
		t.Errorf("Expected 2 rows removed, got %d", removed)
	}
	if repo.Len() != 1 {
		t.Errorf("Expected 1 row left, got %d", repo.Len())
	}
}
