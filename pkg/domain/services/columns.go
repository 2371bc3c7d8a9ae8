package services

import (
	"fmt"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
)

// RenderColumns resolves a record against a column map, in column order.
// Date columns are converted from dd-mm-yyyy.
func RenderColumns(columns []entities.ColumnMapping, record *entities.ClassifiedRecord) ([]any, error) {
	values := make([]any, len(columns))
	for i, c := range columns {
		v, ok := record.Value(c.Field)
		if !ok {
			return nil, fmt.Errorf("column %s: unknown record field %s", c.Column, c.Field)
		}
		if c.ConvertDate {
			s, _ := v.(string)
			converted, err := entities.ConvertDayMonthYear(c.Field, s)
			if err != nil {
				return nil, err
			}
			v = converted
		}
		values[i] = v
	}
	return values, nil
}

// RenderRow is RenderColumns keyed by destination column name
func RenderRow(columns []entities.ColumnMapping, record *entities.ClassifiedRecord) (map[string]any, error) {
	values, err := RenderColumns(columns, record)
	if err != nil {
		return nil, err
	}
	row := make(map[string]any, len(columns))
	for i, c := range columns {
		row[c.Column] = values[i]
	}
	return row, nil
}
