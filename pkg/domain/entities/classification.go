package entities

import (
	"github.com/shopspring/decimal"
)

// Outcome is the classification result for one order
type Outcome int

const (
	Included Outcome = iota
	ExcludedMissingLookup
	ExcludedByRule
)

// String method for Outcome enum
func (o Outcome) String() string {
	switch o {
	case Included:
		return "Included"
	case ExcludedMissingLookup:
		return "ExcludedMissingLookup"
	case ExcludedByRule:
		return "ExcludedByRule"
	default:
		return "Unknown"
	}
}

// MarshalText renders the outcome by name in JSON output
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ClassifiedRecord is the destination shape of an included order
type ClassifiedRecord struct {
	ServiceOrderNumber    ServiceOrderNumber  `json:"SERVICE_ORDER_NUMBER"`
	FunctionalLocation    string              `json:"FUNCTIONAL_LOCATION"`
	Quantity              decimal.Decimal     `json:"QUANTITY"`
	Issue                 decimal.Decimal     `json:"ISSUE"`
	Return                decimal.Decimal     `json:"RETURN"`
	PercentageIssueReturn decimal.Decimal     `json:"PERCENTAGE_ISSUE_RETURN"`
	Classification        string              `json:"CLASSIFICATION,omitempty"`
	Component             string              `json:"Component,omitempty"`
	OrderLabel            string              `json:"Order,omitempty"`
	State                 string              `json:"STATE,omitempty"`
	Area                  string              `json:"AREA,omitempty"`
	Site                  string              `json:"SITE,omitempty"`
	WTGModel              string              `json:"WTG_Model,omitempty"`
	StorageLocation       string              `json:"STOR_LOC"`
	DocumentNumber        string              `json:"DOCUMENT_NUMBER"`
	Material              MaterialCode        `json:"MATERIAL"`
	MaterialDescription   string              `json:"MATERIAL_DESCRIPTION"`
	Plant                 string              `json:"PLANT"`
	MoveType              MoveType            `json:"MOVE_TYPE"`
	ValType               string              `json:"VAL_TYPE"`
	PostingDate           string              `json:"POSTING_DATE"`
	EntryDate             string              `json:"ENTRY_DATE"`
	OrderStatus           string              `json:"ZTEXT1"`
	CurrentOilChangeDate  string              `json:"current_Oil_change_date,omitempty"`
	OrderType             string              `json:"ORDER_TYPE"`
	PrimaryThreshold      decimal.NullDecimal `json:"PRIMARY_THRESHOLD"`
	SecondaryThreshold    decimal.NullDecimal `json:"SECONDARY_THRESHOLD"`
	DateOfInsertion       string              `json:"date_of_insertion,omitempty"`
}

// Decision pairs an order with its outcome
type Decision struct {
	ServiceOrderNumber ServiceOrderNumber `json:"service_order_number"`
	Outcome            Outcome            `json:"outcome"`
	Reason             string             `json:"reason,omitempty"`
	Percentage         decimal.Decimal    `json:"percentage"`
	Record             *ClassifiedRecord  `json:"-"`
}

// Field names of ClassifiedRecord used by column maps
const (
	FieldServiceOrderNumber    = "SERVICE_ORDER_NUMBER"
	FieldFunctionalLocation    = "FUNCTIONAL_LOCATION"
	FieldQuantity              = "QUANTITY"
	FieldTotalQuantity         = "TOTAL_QUANTITY"
	FieldIssue                 = "ISSUE"
	FieldReturn                = "RETURN"
	FieldPercentageIssueReturn = "PERCENTAGE_ISSUE_RETURN"
	FieldClassification        = "CLASSIFICATION"
	FieldComponent             = "COMPONENT"
	FieldOrderLabel            = "ORDER"
	FieldState                 = "STATE"
	FieldArea                  = "AREA"
	FieldSite                  = "SITE"
	FieldWTGModel              = "WTG_MODEL"
	FieldStorageLocation       = "STOR_LOC"
	FieldDocumentNumber        = "DOCUMENT_NUMBER"
	FieldMaterial              = "MATERIAL"
	FieldMaterialDescription   = "MATERIAL_DESCRIPTION"
	FieldPlant                 = "PLANT"
	FieldMoveType              = "MOVE_TYPE"
	FieldValType               = "VAL_TYPE"
	FieldPostingDate           = "POSTING_DATE"
	FieldEntryDate             = "ENTRY_DATE"
	FieldOrderStatus           = "ZTEXT1"
	FieldCurrentOilChangeDate  = "CURRENT_OIL_CHANGE_DATE"
	FieldOrderType             = "ORDER_TYPE"
	FieldPrimaryThreshold      = "PRIMARY_THRESHOLD"
	FieldSecondaryThreshold    = "SECONDARY_THRESHOLD"
	FieldDateOfInsertion       = "DATE_OF_INSERTION"
)

// Value returns the record value for a column map field name.
// Decimals are returned as strings so every driver binds them losslessly.
func (r *ClassifiedRecord) Value(field string) (any, bool) {
	switch field {
	case FieldServiceOrderNumber:
		return string(r.ServiceOrderNumber), true
	case FieldFunctionalLocation:
		return r.FunctionalLocation, true
	case FieldQuantity, FieldTotalQuantity:
		return r.Quantity.String(), true
	case FieldIssue:
		return r.Issue.String(), true
	case FieldReturn:
		return r.Return.String(), true
	case FieldPercentageIssueReturn:
		return r.PercentageIssueReturn.String(), true
	case FieldClassification:
		return r.Classification, true
	case FieldComponent:
		return r.Component, true
	case FieldOrderLabel:
		return r.OrderLabel, true
	case FieldState:
		return r.State, true
	case FieldArea:
		return r.Area, true
	case FieldSite:
		return r.Site, true
	case FieldWTGModel:
		return r.WTGModel, true
	case FieldStorageLocation:
		return r.StorageLocation, true
	case FieldDocumentNumber:
		return r.DocumentNumber, true
	case FieldMaterial:
		return string(r.Material), true
	case FieldMaterialDescription:
		return r.MaterialDescription, true
	case FieldPlant:
		return r.Plant, true
	case FieldMoveType:
		return string(r.MoveType), true
	case FieldValType:
		return r.ValType, true
	case FieldPostingDate:
		return r.PostingDate, true
	case FieldEntryDate:
		return r.EntryDate, true
	case FieldOrderStatus:
		return r.OrderStatus, true
	case FieldCurrentOilChangeDate:
		return r.CurrentOilChangeDate, true
	case FieldOrderType:
		return r.OrderType, true
	case FieldPrimaryThreshold:
		return nullDecimal(r.PrimaryThreshold), true
	case FieldSecondaryThreshold:
		return nullDecimal(r.SecondaryThreshold), true
	case FieldDateOfInsertion:
		return r.DateOfInsertion, true
	default:
		return nil, false
	}
}

func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}
