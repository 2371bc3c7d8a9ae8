package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/oilanalysis/pkg/domain/entities"
	"github.com/vsinha/oilanalysis/pkg/domain/repositories"
)

func definition() entities.ReportDefinition {
	return entities.ReportDefinition{
		Key:      "yd-oil-change",
		Sink:     entities.SinkJSONFile,
		FilePath: "results.json",
		Columns: []entities.ColumnMapping{
			{Field: entities.FieldServiceOrderNumber, Column: "SERVICE_ORDER_NUMBER"},
			{Field: entities.FieldPercentageIssueReturn, Column: "PERCENTAGE_ISSUE_RETURN"},
			{Field: entities.FieldOrderLabel, Column: "Order"},
		},
	}
}

func TestReportWriter_WritesOrderedArray(t *testing.T) {
	dir := t.TempDir()
	w := NewReportWriter(dir)
	records := []entities.ClassifiedRecord{
		{ServiceOrderNumber: "SO2", PercentageIssueReturn: decimal.NewFromInt(85), OrderLabel: "YD"},
		{ServiceOrderNumber: "SO1", PercentageIssueReturn: decimal.NewFromInt(90), OrderLabel: "YD"},
	}

	summary, err := w.WriteRecords(context.Background(), definition(), records, repositories.WriteTransaction)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Written)

	data, err := os.ReadFile(filepath.Join(dir, "results.json"))
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	require.Equal(t, "SO2", rows[0]["SERVICE_ORDER_NUMBER"])
	require.Equal(t, "85", rows[0]["PERCENTAGE_ISSUE_RETURN"])
	require.Equal(t, "YD", rows[1]["Order"])

	// Keys follow the column map order
	text := string(data)
	require.Less(t, strings.Index(text, "SERVICE_ORDER_NUMBER"), strings.Index(text, "PERCENTAGE_ISSUE_RETURN"))
}

func TestReportWriter_OverwritesPreviousRun(t *testing.T) {
	dir := t.TempDir()
	w := NewReportWriter(dir)
	ctx := context.Background()

	_, err := w.WriteRecords(ctx, definition(), []entities.ClassifiedRecord{{ServiceOrderNumber: "SO1"}, {ServiceOrderNumber: "SO2"}}, repositories.WriteTransaction)
	require.NoError(t, err)
	_, err = w.WriteRecords(ctx, definition(), []entities.ClassifiedRecord{{ServiceOrderNumber: "SO3"}}, repositories.WriteTransaction)
	require.NoError(t, err)

	data, err := os.ReadFile(w.Path(definition()))
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	require.Equal(t, "SO3", rows[0]["SERVICE_ORDER_NUMBER"])
}

func TestReportWriter_EmptyRunWritesEmptyArray(t *testing.T) {
	w := NewReportWriter(t.TempDir())
	_, err := w.WriteRecords(context.Background(), definition(), nil, repositories.WriteTransaction)
	require.NoError(t, err)

	data, err := os.ReadFile(w.Path(definition()))
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(data))
}

func TestAuditLog_AppendCreatesAndExtends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "deleted_records.json")
	log := NewAuditLog(path)
	log.now = func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) }

	first := []entities.ConsumptionRow{{ServiceOrderNumber: "SO1", MoveType: "292", Quantity: decimal.NewFromInt(5)}}
	require.NoError(t, log.Append(first))
	require.NoError(t, log.Append(nil))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "2024-03-15", entries[0].Date)
	require.Len(t, entries[0].DeletedRecords, 1)
	require.Equal(t, entities.ServiceOrderNumber("SO1"), entries[0].DeletedRecords[0].ServiceOrderNumber)
	require.True(t, entries[0].DeletedRecords[0].Quantity.Equal(decimal.NewFromInt(5)))
	require.Empty(t, entries[1].DeletedRecords)
}

func TestAuditLog_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	err := NewAuditLog(path).Append(nil)
	require.Error(t, err)
}
