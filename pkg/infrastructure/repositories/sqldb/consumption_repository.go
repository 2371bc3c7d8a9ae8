package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

// Consumption table columns, in scan order
var consumptionColumns = []string{
	"SERVICE_ORDER_NUMBER",
	"MATERIAL",
	"MOVE_TYPE",
	"QUANTITY",
	"UNIT",
	"FUNCTIONAL_LOCATION",
	"PLANT",
	"STOR_LOC",
	"DOCUMENT_NUMBER",
	"VAL_TYPE",
	"POSTING_DATE",
	"ENTRY_DATE",
	"current_Oil_change_date",
	"ZZAUFNR",
	"ZTEXT1",
	"TXTMD",
	"order_type",
}

// consumptionOrdering covers every scanned column, so rows that tie on the
// whole key are identical and offset pages can neither repeat nor skip a row
var consumptionOrdering = []string{
	"SERVICE_ORDER_NUMBER",
	"DOCUMENT_NUMBER",
	"MATERIAL",
	"MOVE_TYPE",
	"QUANTITY",
	"POSTING_DATE",
	"ENTRY_DATE",
	"UNIT",
	"FUNCTIONAL_LOCATION",
	"PLANT",
	"STOR_LOC",
	"VAL_TYPE",
	"current_Oil_change_date",
	"ZZAUFNR",
	"ZTEXT1",
	"TXTMD",
	"order_type",
}

// ConsumptionRepository reads the consumption analysis table
type ConsumptionRepository struct {
	*DB
}

// NewConsumptionRepository creates a consumption repository on db
func NewConsumptionRepository(db *DB) *ConsumptionRepository {
	return &ConsumptionRepository{DB: db}
}

// Verify interface compliance
var _ repositories.ConsumptionRepository = (*ConsumptionRepository)(nil)

// FetchBatch selects one page of the rows of qualifying orders. The order
// type prefixes and the material allowlist are bound parameters.
func (r *ConsumptionRepository) FetchBatch(
	ctx context.Context,
	filter entities.ExtractionFilter,
	offset, limit int,
) ([]entities.ConsumptionRow, error) {
	query, args := r.batchQuery(r.tables.Consumption, filter, offset, limit)
	r.logger.Debug("fetching consumption batch",
		zap.Int("offset", offset),
		zap.Int("limit", limit),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("fetch consumption batch", err)
	}
	defer rows.Close()

	batch, err := scanConsumption(rows)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *ConsumptionRepository) batchQuery(table string, filter entities.ExtractionFilter, offset, limit int) (string, []any) {
	d := r.dialect
	var args []any
	bind := func(v any) string {
		args = append(args, v)
		return d.Placeholder(len(args))
	}

	// The order type filter applies to both the rows and the grouping
	// subquery, so its prefixes are bound once per use
	orderType := d.Quote("order_type")
	admits := func() string {
		if len(filter.ExcludedOrderTypePrefixes) == 0 {
			return "1 = 1"
		}
		matches := make([]string, len(filter.ExcludedOrderTypePrefixes))
		for i, prefix := range filter.ExcludedOrderTypePrefixes {
			matches[i] = d.CaseSensitiveEquals(d.Substring(orderType, len(prefix)), bind(prefix))
		}
		return fmt.Sprintf("(NOT (%s) OR %s IS NULL OR %s = '')", strings.Join(matches, " OR "), orderType, orderType)
	}

	son := d.Quote("SERVICE_ORDER_NUMBER")
	quotedTable := d.Quote(table)

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s", d.QuoteAll(consumptionColumns), quotedTable, admits())
	fmt.Fprintf(&b, " AND %s IN (SELECT %s FROM %s WHERE %s", son, son, quotedTable, admits())

	materials := make([]string, len(filter.Materials))
	for i, m := range filter.Materials {
		materials[i] = bind(string(m))
	}
	fmt.Fprintf(&b, " AND %s IN (%s) GROUP BY %s)", d.Quote("MATERIAL"), strings.Join(materials, ", "), son)
	fmt.Fprintf(&b, " ORDER BY %s ", d.QuoteAll(consumptionOrdering))

	clause, pageArgs := d.Paginate(len(args)+1, offset, limit)
	b.WriteString(clause)
	args = append(args, pageArgs...)
	return b.String(), args
}

func scanConsumption(rows *sql.Rows) ([]entities.ConsumptionRow, error) {
	var batch []entities.ConsumptionRow
	for rows.Next() {
		row, err := scanConsumptionRow(rows)
		if err != nil {
			return nil, err
		}
		batch = append(batch, row)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("read consumption rows", err)
	}
	if batch == nil {
		batch = []entities.ConsumptionRow{}
	}
	return batch, nil
}

func scanConsumptionRow(rows *sql.Rows) (entities.ConsumptionRow, error) {
	var (
		son, material, moveType, unit, floc, plant, storLoc, docNumber, valType sql.NullString
		parentOrder, status, description, orderType                             sql.NullString
		quantity, postingDate, entryDate, oilChangeDate                         any
	)
	if err := rows.Scan(
		&son, &material, &moveType, &quantity, &unit, &floc, &plant, &storLoc, &docNumber, &valType,
		&postingDate, &entryDate, &oilChangeDate, &parentOrder, &status, &description, &orderType,
	); err != nil {
		return entities.ConsumptionRow{}, queryError("scan consumption row", err)
	}

	qty, err := entities.ParseQuantity(quantity)
	if err != nil {
		return entities.ConsumptionRow{}, err
	}
	return entities.ConsumptionRow{
		ServiceOrderNumber:   entities.ServiceOrderNumber(strings.TrimSpace(son.String)),
		Material:             entities.MaterialCode(strings.TrimSpace(material.String)),
		MoveType:             entities.MoveType(strings.TrimSpace(moveType.String)),
		Quantity:             qty,
		Unit:                 unit.String,
		FunctionalLocation:   floc.String,
		Plant:                plant.String,
		StorageLocation:      storLoc.String,
		DocumentNumber:       docNumber.String,
		ValType:              valType.String,
		PostingDate:          entities.FormatSourceDate(postingDate),
		EntryDate:            entities.FormatSourceDate(entryDate),
		CurrentOilChangeDate: entities.FormatSourceDate(oilChangeDate),
		ParentOrder:          parentOrder.String,
		OrderStatus:          status.String,
		MaterialDescription:  description.String,
		OrderType:            orderType.String,
	}, nil
}
