package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseQuantity coerces a driver value into a decimal quantity.
// NULL and blank text count as zero.
func ParseQuantity(v any) (decimal.Decimal, error) {
	switch q := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return q, nil
	case int64:
		return decimal.NewFromInt(q), nil
	case int:
		return decimal.NewFromInt(int64(q)), nil
	case float64:
		return decimal.NewFromFloat(q), nil
	case float32:
		return decimal.NewFromFloat32(q), nil
	case []byte:
		return parseQuantityText(string(q))
	case string:
		return parseQuantityText(q)
	default:
		return decimal.Zero, &ParseError{Field: "QUANTITY", Value: fmt.Sprintf("%v", v), Err: fmt.Errorf("unsupported type %T", v)}
	}
}

func parseQuantityText(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ParseError{Field: "QUANTITY", Value: s, Err: err}
	}
	return d, nil
}

const (
	dayMonthYear = "02-01-2006"
	isoDate      = "2006-01-02"
)

// dayMonthYearLayouts accept zero-padded and unpadded day and month
var dayMonthYearLayouts = []string{dayMonthYear, "2-1-2006"}

// ConvertDayMonthYear rewrites a dd-mm-yyyy value as yyyy-mm-dd.
// ISO values pass through and blank stays blank.
func ConvertDayMonthYear(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, layout := range dayMonthYearLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(isoDate), nil
		}
	}
	if _, err := time.Parse(isoDate, value); err == nil {
		return value, nil
	}
	return "", &ParseError{Field: field, Value: value, Err: fmt.Errorf("expected dd-mm-yyyy")}
}

// FormatSourceDate normalises a driver value for a date column into text
func FormatSourceDate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format(isoDate)
	case []byte:
		return strings.TrimSpace(string(d))
	case string:
		return strings.TrimSpace(d)
	default:
		return fmt.Sprintf("%v", v)
	}
}
