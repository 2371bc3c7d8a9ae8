package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

const consumptionDDL = `(
	MATERIAL TEXT, PLANT TEXT, MOVE_TYPE TEXT, VAL_TYPE TEXT, POSTING_DATE TEXT,
	ENTRY_DATE TEXT, QUANTITY NUMERIC, UNIT TEXT, FUNCTIONAL_LOCATION TEXT,
	SERVICE_ORDER_NUMBER TEXT, STOR_LOC TEXT, DOCUMENT_NUMBER TEXT, ZZAUFNR TEXT,
	ZTEXT1 TEXT, TXTMD TEXT, order_type TEXT, current_Oil_change_date TEXT
)`

var schema = []string{
	`CREATE TABLE consumption_analysis_table ` + consumptionDDL,
	`CREATE TABLE source_rows ` + consumptionDDL,
	`CREATE VIEW vw_consumption_analysis AS SELECT * FROM source_rows`,
	`CREATE TABLE installedbase (Functional_Location TEXT, WTG_Model TEXT, State TEXT, Area TEXT, Site TEXT)`,
	`CREATE TABLE fc_threshold (material_code TEXT, wtg_model TEXT, ten_percent_reduced_value NUMERIC)`,
	`CREATE TABLE oil_model_master (wtg_model TEXT, total_yaw_drive_oil_per_wtg NUMERIC, total_pitch_drive_oil_per_wtg NUMERIC)`,
	`CREATE TABLE report_out ("Order No" TEXT PRIMARY KEY, "Posting Date" TEXT, "Issue" TEXT)`,
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oilanalysis.db")
	db, err := Open(context.Background(), DriverSQLite, path, Tables{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, ddl := range schema {
		_, err := db.SQL().Exec(ddl)
		require.NoError(t, err, ddl)
	}
	return db
}

func insertRows(t *testing.T, db *DB, table string, rows ...entities.ConsumptionRow) {
	t.Helper()
	d := db.Dialect()
	stmt := "INSERT INTO " + d.Quote(table) + " (" + d.QuoteAll(consumptionColumns) + ") VALUES (" +
		d.Placeholders(1, len(consumptionColumns)) + ")"
	for _, row := range rows {
		_, err := db.SQL().Exec(stmt, consumptionValues(row)...)
		require.NoError(t, err)
	}
}

func movement(son, material, moveType, qty, orderType string) entities.ConsumptionRow {
	return entities.ConsumptionRow{
		ServiceOrderNumber: entities.ServiceOrderNumber(son),
		Material:           entities.MaterialCode(material),
		MoveType:           entities.MoveType(moveType),
		Quantity:           decimal.RequireFromString(qty),
		FunctionalLocation: "FL-" + son,
		DocumentNumber:     "DOC-" + moveType,
		PostingDate:        "15-03-2024",
		OrderType:          orderType,
	}
}

func TestDialect(t *testing.T) {
	mssql, err := DialectFor("sqlserver")
	require.NoError(t, err)
	require.Equal(t, "@p3", mssql.Placeholder(3))
	require.Equal(t, "[dbo].[consumption_analysis_table]", mssql.Quote("dbo.consumption_analysis_table"))
	clause, args := mssql.Paginate(4, 2000, 500)
	require.Equal(t, "OFFSET @p4 ROWS FETCH NEXT @p5 ROWS ONLY", clause)
	require.Equal(t, []any{2000, 500}, args)
	require.Equal(t, "SUBSTRING([order_type], 1, 2) COLLATE Latin1_General_BIN = @p1",
		mssql.CaseSensitiveEquals(mssql.Substring(mssql.Quote("order_type"), 2), mssql.Placeholder(1)))

	pg, err := DialectFor("pgx")
	require.NoError(t, err)
	require.Equal(t, "$1, $2", pg.Placeholders(1, 2))
	require.Equal(t, `"Order No"`, pg.Quote("Order No"))
	require.Equal(t, `SUBSTRING("order_type", 1, 2) = $1`,
		pg.CaseSensitiveEquals(pg.Substring(pg.Quote("order_type"), 2), pg.Placeholder(1)))

	lite, err := DialectFor("sqlite")
	require.NoError(t, err)
	clause, args = lite.Paginate(1, 10, 5)
	require.Equal(t, "LIMIT ? OFFSET ?", clause)
	require.Equal(t, []any{5, 10}, args)
	require.Equal(t, `substr("order_type", 1, 2) = ?`,
		lite.CaseSensitiveEquals(lite.Substring(lite.Quote("order_type"), 2), lite.Placeholder(1)))

	_, err = DialectFor("oracle")
	require.Error(t, err)
}

func TestOpen_UnknownDriverIsConnectionError(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn", Tables{}, nil)
	var cerr *entities.ConnectionError
	require.True(t, errors.As(err, &cerr))
	require.True(t, entities.IsFatal(err))
}

func TestConsumptionRepository_FetchBatch(t *testing.T) {
	db := newTestDB(t)
	insertRows(t, db, "consumption_analysis_table",
		movement("SO2", "51028446", "291", "50", "ZM01"),
		movement("SO1", "51028446", "291", "100", ""),
		movement("SO1", "51028446", "653", "-85", ""),
		movement("SO1", "99999999", "291", "5", ""),
		movement("SO3", "99999999", "291", "10", ""),
		movement("SO4", "51028446", "291", "10", "yd_change"),
		movement("SO5", "51028446", "291", "10", "YD_CHANGE"),
	)
	repo := NewConsumptionRepository(db)
	filter := entities.ExtractionFilter{
		Materials:                 []entities.MaterialCode{"51028446"},
		ExcludedOrderTypePrefixes: []string{"yd", "pd"},
	}
	ctx := context.Background()

	rows, err := repo.FetchBatch(ctx, filter, 0, 100)
	require.NoError(t, err)

	var orders []entities.ServiceOrderNumber
	for _, r := range rows {
		orders = append(orders, r.ServiceOrderNumber)
	}
	// Prefix matching is case-sensitive, so SO5 passes
	require.Equal(t, []entities.ServiceOrderNumber{"SO1", "SO1", "SO1", "SO2", "SO5"}, orders)
	require.True(t, rows[1].Quantity.Equal(decimal.NewFromInt(-85)) || rows[2].Quantity.Equal(decimal.NewFromInt(-85)))
	require.Equal(t, "15-03-2024", rows[0].PostingDate)

	page, err := repo.FetchBatch(ctx, filter, 3, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, entities.ServiceOrderNumber("SO2"), page[0].ServiceOrderNumber)

	empty, err := repo.FetchBatch(ctx, filter, 10, 2)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestConsumptionRepository_PagesSplitTiedLineItems(t *testing.T) {
	db := newTestDB(t)
	// Two line items of one material document, equal on order, document,
	// material and move type
	insertRows(t, db, "consumption_analysis_table",
		movement("SO1", "51028446", "291", "20", ""),
		movement("SO1", "51028446", "291", "10", ""),
		movement("SO1", "51028446", "653", "-25", ""),
	)
	repo := NewConsumptionRepository(db)
	filter := entities.ExtractionFilter{Materials: []entities.MaterialCode{"51028446"}}

	issue := decimal.Zero
	seen := 0
	for offset := 0; ; offset++ {
		page, err := repo.FetchBatch(context.Background(), filter, offset, 1)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		seen++
		if page[0].MoveType == entities.MoveTypeIssue {
			issue = issue.Add(page[0].Quantity)
		}
	}
	require.Equal(t, 3, seen)
	require.True(t, issue.Equal(decimal.NewFromInt(30)), "issue total %s", issue)

	query, _ := repo.batchQuery("consumption_analysis_table", filter, 0, 1)
	require.Contains(t, query, `ORDER BY "SERVICE_ORDER_NUMBER", "DOCUMENT_NUMBER", "MATERIAL", "MOVE_TYPE", "QUANTITY", "POSTING_DATE", "ENTRY_DATE"`)
}

func TestConsumptionRepository_SQLServerPrefixIsBinary(t *testing.T) {
	d, err := DialectFor(DriverSQLServer)
	require.NoError(t, err)
	repo := NewConsumptionRepository(New(nil, d, DefaultTables(), nil))

	query, args := repo.batchQuery("consumption_analysis_table", entities.ExtractionFilter{
		Materials:                 []entities.MaterialCode{"51028446"},
		ExcludedOrderTypePrefixes: []string{"yd"},
	}, 0, 10)
	require.Contains(t, query, "SUBSTRING([order_type], 1, 2) COLLATE Latin1_General_BIN = @p1")
	require.Contains(t, query, "SUBSTRING([order_type], 1, 2) COLLATE Latin1_General_BIN = @p2")
	require.Equal(t, []any{"yd", "yd", "51028446", 0, 10}, args)
}

func TestConsumptionRepository_BadQuantityIsParseError(t *testing.T) {
	db := newTestDB(t)
	_, err := db.SQL().Exec(`INSERT INTO consumption_analysis_table (SERVICE_ORDER_NUMBER, MATERIAL, MOVE_TYPE, QUANTITY) VALUES ('SO1', '51028446', '291', 'ten')`)
	require.NoError(t, err)

	_, err = NewConsumptionRepository(db).FetchBatch(context.Background(),
		entities.ExtractionFilter{Materials: []entities.MaterialCode{"51028446"}}, 0, 10)
	var perr *entities.ParseError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, "QUANTITY", perr.Field)
}

func TestConsumptionRepository_MissingTableIsQueryError(t *testing.T) {
	db := newTestDB(t)
	_, err := db.SQL().Exec(`DROP TABLE consumption_analysis_table`)
	require.NoError(t, err)

	_, err = NewConsumptionRepository(db).FetchBatch(context.Background(),
		entities.ExtractionFilter{Materials: []entities.MaterialCode{"51028446"}}, 0, 10)
	var qerr *entities.QueryError
	require.True(t, errors.As(err, &qerr))
}

func TestLookupRepositories(t *testing.T) {
	db := newTestDB(t)
	for _, stmt := range []string{
		`INSERT INTO installedbase VALUES ('FL-1', 'S88', 'GJ', 'North', 'Site A')`,
		`INSERT INTO fc_threshold VALUES ('51033078', 'S88', 300), ('51033078', 'S88', 200), ('51033078', 'S111', 90)`,
		`INSERT INTO oil_model_master VALUES ('S88', 40, 90), ('S88', 40, 60), ('S88', 55, 10)`,
	} {
		_, err := db.SQL().Exec(stmt)
		require.NoError(t, err)
	}
	ctx := context.Background()

	ib, err := NewInstalledBaseRepository(db).FindByFunctionalLocation(ctx, "FL-1")
	require.NoError(t, err)
	require.Equal(t, &entities.InstalledBase{FunctionalLocation: "FL-1", WTGModel: "S88", State: "GJ", Area: "North", Site: "Site A"}, ib)

	missing, err := NewInstalledBaseRepository(db).FindByFunctionalLocation(ctx, "FL-9")
	require.NoError(t, err)
	require.Nil(t, missing)

	capacity := NewCapacityRepository(db)
	fc, err := capacity.FCThreshold(ctx, "51033078", "S88")
	require.NoError(t, err)
	require.True(t, fc.Primary.Equal(decimal.NewFromInt(200)))

	oil, err := capacity.OilModel(ctx, "S88")
	require.NoError(t, err)
	require.True(t, oil.Primary.Equal(decimal.NewFromInt(40)))
	require.True(t, oil.Secondary.Valid)
	require.True(t, oil.Secondary.Decimal.Equal(decimal.NewFromInt(60)))

	none, err := capacity.OilModel(ctx, "S111")
	require.NoError(t, err)
	require.Nil(t, none)
}

func writerDefinition() entities.ReportDefinition {
	return entities.ReportDefinition{
		Key:   "test-report",
		Sink:  entities.SinkTable,
		Table: "report_out",
		Columns: []entities.ColumnMapping{
			{Field: entities.FieldServiceOrderNumber, Column: "Order No"},
			{Field: entities.FieldPostingDate, Column: "Posting Date", ConvertDate: true},
			{Field: entities.FieldIssue, Column: "Issue"},
		},
	}
}

func classified(son, postingDate string) entities.ClassifiedRecord {
	return entities.ClassifiedRecord{
		ServiceOrderNumber: entities.ServiceOrderNumber(son),
		PostingDate:        postingDate,
		Issue:              decimal.NewFromInt(100),
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestReportWriter_TransactionMode(t *testing.T) {
	db := newTestDB(t)
	w := NewReportWriter(db)
	ctx := context.Background()

	summary, err := w.WriteRecords(ctx, writerDefinition(),
		[]entities.ClassifiedRecord{classified("SO1", "15-03-2024"), classified("SO2", "2024-03-16")},
		repositories.WriteTransaction)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Written)

	var posting string
	require.NoError(t, db.SQL().QueryRow(`SELECT "Posting Date" FROM report_out WHERE "Order No" = 'SO1'`).Scan(&posting))
	require.Equal(t, "2024-03-15", posting)

	// A duplicate key rolls back the whole batch
	_, err = w.WriteRecords(ctx, writerDefinition(),
		[]entities.ClassifiedRecord{classified("SO3", "15-03-2024"), classified("SO1", "15-03-2024")},
		repositories.WriteTransaction)
	require.Error(t, err)
	var qerr *entities.QueryError
	require.True(t, errors.As(err, &qerr))
	require.Equal(t, 2, countRows(t, db.SQL(), "report_out"))
}

func TestReportWriter_ContinueMode(t *testing.T) {
	db := newTestDB(t)
	w := NewReportWriter(db)
	records := []entities.ClassifiedRecord{
		classified("SO1", "15-03-2024"),
		classified("SO1", "15-03-2024"),
		classified("SO2", "not a date"),
		classified("SO3", "17-03-2024"),
	}

	summary, err := w.WriteRecords(context.Background(), writerDefinition(), records, repositories.WriteContinue)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Written)
	require.Len(t, summary.Failures, 2)
	require.Equal(t, entities.ServiceOrderNumber("SO1"), summary.Failures[0].ServiceOrderNumber)
	require.Equal(t, entities.ServiceOrderNumber("SO2"), summary.Failures[1].ServiceOrderNumber)
	require.Equal(t, 2, countRows(t, db.SQL(), "report_out"))
}

func TestRefreshSession(t *testing.T) {
	db := newTestDB(t)
	insertRows(t, db, "consumption_analysis_table", movement("OLD", "51028446", "291", "1", ""))
	insertRows(t, db, "source_rows",
		movement("SO1", "51028446", "292", "5", ""),
		movement("SO2", "51028446", "654", "-2", ""),
		movement("SO3", "51028446", "291", "10", ""),
		movement("SO3", "51028446", "292", "-1", ""),
	)
	_, err := db.SQL().Exec(`INSERT INTO report_out VALUES ('X', '2024-01-01', '1')`)
	require.NoError(t, err)

	ctx := context.Background()
	session, err := NewRefreshRepository(db).BeginRefresh(ctx)
	require.NoError(t, err)
	defer session.Rollback()

	cleared, err := session.ClearTable(ctx, "report_out")
	require.NoError(t, err)
	require.Equal(t, int64(1), cleared)

	cleared, err = session.ClearConsumption(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), cleared)

	first, err := session.ReadViewBatch(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	rest, err := session.ReadViewBatch(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.NoError(t, session.InsertConsumption(ctx, append(first, rest...)))

	single, err := session.SingleSidedRows(ctx, []entities.MoveType{"292", "654"})
	require.NoError(t, err)
	require.Len(t, single, 2)
	require.Equal(t, entities.ServiceOrderNumber("SO1"), single[0].ServiceOrderNumber)
	require.Equal(t, entities.ServiceOrderNumber("SO2"), single[1].ServiceOrderNumber)

	for _, row := range single {
		n, err := session.DeleteOrder(ctx, row.ServiceOrderNumber)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	}
	require.NoError(t, session.Commit())

	require.Equal(t, 2, countRows(t, db.SQL(), "consumption_analysis_table"))
	require.Equal(t, 0, countRows(t, db.SQL(), "report_out"))
}
