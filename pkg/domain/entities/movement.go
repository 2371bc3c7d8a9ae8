package entities

import (
	"github.com/shopspring/decimal"
)

// ServiceOrderNumber identifies a maintenance work order
type ServiceOrderNumber string

// MaterialCode identifies a stock material
type MaterialCode string

// MoveType is the stock movement type code of a material document line
type MoveType string

// Movement type codes recognised by the aggregation
const (
	MoveTypeIssue         MoveType = "291"
	MoveTypeIssueReversal MoveType = "292"
	MoveTypeReturn        MoveType = "653"
	MoveTypeReturnReverse MoveType = "654"
)

// MovementSide tells which running total a movement contributes to
type MovementSide int

const (
	SideNone MovementSide = iota
	SideIssue
	SideReturn
)

// String method for MovementSide enum
func (s MovementSide) String() string {
	switch s {
	case SideIssue:
		return "Issue"
	case SideReturn:
		return "Return"
	default:
		return "None"
	}
}

// Side classifies the move type. Unknown codes contribute nothing.
func (m MoveType) Side() MovementSide {
	switch m {
	case MoveTypeIssue, MoveTypeIssueReversal:
		return SideIssue
	case MoveTypeReturn, MoveTypeReturnReverse:
		return SideReturn
	default:
		return SideNone
	}
}

// ConsumptionRow is one material movement record from the consumption analysis table
type ConsumptionRow struct {
	ServiceOrderNumber   ServiceOrderNumber `json:"SERVICE_ORDER_NUMBER"`
	Material             MaterialCode       `json:"MATERIAL"`
	MoveType             MoveType           `json:"MOVE_TYPE"`
	Quantity             decimal.Decimal    `json:"QUANTITY"`
	Unit                 string             `json:"UNIT,omitempty"`
	FunctionalLocation   string             `json:"FUNCTIONAL_LOCATION"`
	Plant                string             `json:"PLANT"`
	StorageLocation      string             `json:"STOR_LOC"`
	DocumentNumber       string             `json:"DOCUMENT_NUMBER"`
	ValType              string             `json:"VAL_TYPE"`
	PostingDate          string             `json:"POSTING_DATE"`
	EntryDate            string             `json:"ENTRY_DATE"`
	CurrentOilChangeDate string             `json:"current_Oil_change_date,omitempty"`
	ParentOrder          string             `json:"ZZAUFNR,omitempty"`
	OrderStatus          string             `json:"ZTEXT1"`
	MaterialDescription  string             `json:"TXTMD"`
	OrderType            string             `json:"order_type"`
}

// ExtractionFilter selects the rows a report reads from the source table
type ExtractionFilter struct {
	Materials                 []MaterialCode
	ExcludedOrderTypePrefixes []string
}

// HasMaterial reports whether code is in the allowlist
func (f ExtractionFilter) HasMaterial(code MaterialCode) bool {
	for _, m := range f.Materials {
		if m == code {
			return true
		}
	}
	return false
}

// AdmitsOrderType applies the disqualifying prefix list. Prefix matching is
// case-sensitive and an empty order type always passes.
func (f ExtractionFilter) AdmitsOrderType(orderType string) bool {
	if orderType == "" {
		return true
	}
	for _, prefix := range f.ExcludedOrderTypePrefixes {
		if len(orderType) >= len(prefix) && orderType[:len(prefix)] == prefix {
			return false
		}
	}
	return true
}

// Admits is the row-level part of the filter
func (f ExtractionFilter) Admits(row ConsumptionRow) bool {
	return f.AdmitsOrderType(row.OrderType)
}
