package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vsinha/oilanalysis/pkg/application/dto"
)

// Formats accepted by Generate
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config holds configuration for output generation
type Config struct {
	Format string
	// OutputDir, when set, receives a results file instead of Out
	OutputDir string
	Verbose   bool
	Out       io.Writer
}

func (c Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Generate writes run results in the configured format
func Generate(results []*dto.RunResult, config Config) error {
	switch config.Format {
	case FormatText, "":
		return generateTextOutput(results, config)
	case FormatJSON:
		return emit(config, "report_results.json", func(w io.Writer) error {
			return writeJSON(w, results)
		})
	case FormatCSV:
		return emit(config, "report_results.csv", func(w io.Writer) error {
			return writeResultsCSV(w, results)
		})
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateRefresh writes a refresh summary in the configured format
func GenerateRefresh(result *dto.RefreshResult, config Config) error {
	switch config.Format {
	case FormatText, "":
		return generateRefreshText(result, config)
	case FormatJSON:
		return emit(config, "refresh_result.json", func(w io.Writer) error {
			return writeJSON(w, result)
		})
	case FormatCSV:
		return fmt.Errorf("csv output is not supported for refresh")
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// emit writes to OutputDir/filename when an output directory is set and to Out otherwise
func emit(config Config, filename string, write func(io.Writer) error) error {
	if config.OutputDir == "" {
		return write(config.out())
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(config.OutputDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 Results saved to: %s\n", path)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var resultsHeader = []string{
	"report", "run_id", "dry_run", "rows_read", "rows_skipped", "orders",
	"included", "excluded_missing_lookup", "excluded_by_rule", "zero_percent",
	"written", "write_failures", "duration_ms",
}

func writeResultsCSV(w io.Writer, results []*dto.RunResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			string(r.Report),
			r.RunID,
			strconv.FormatBool(r.DryRun),
			strconv.Itoa(r.RowsRead),
			strconv.Itoa(r.RowsSkipped),
			strconv.Itoa(r.Orders),
			strconv.Itoa(r.Included),
			strconv.Itoa(r.ExcludedMissingLookup),
			strconv.Itoa(r.ExcludedByRule),
			strconv.Itoa(r.ZeroPercent),
			strconv.Itoa(r.Written),
			strconv.Itoa(len(r.WriteFailures)),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// generateTextOutput creates human-readable text output
func generateTextOutput(results []*dto.RunResult, config Config) error {
	w := config.out()
	fmt.Fprintf(w, "📊 Report Results\n")
	fmt.Fprintf(w, "=================\n\n")

	fmt.Fprintf(w, "%-15s %-8s %-8s %-9s %-8s %-8s %-8s\n",
		"Report", "Rows", "Orders", "Included", "Missing", "Rule", "Written")
	fmt.Fprintf(w, "%-15s %-8s %-8s %-9s %-8s %-8s %-8s\n",
		"---------------", "--------", "--------", "---------", "--------", "--------", "--------")
	for _, r := range results {
		written := strconv.Itoa(r.Written)
		if r.DryRun {
			written = "dry-run"
		}
		fmt.Fprintf(w, "%-15s %-8d %-8d %-9d %-8d %-8d %-8s\n",
			r.Report, r.RowsRead, r.Orders, r.Included, r.ExcludedMissingLookup, r.ExcludedByRule, written)
	}
	fmt.Fprintln(w)

	for _, r := range results {
		if len(r.WriteFailures) == 0 {
			continue
		}
		fmt.Fprintf(w, "⚠️  Write failures for %s:\n", r.Report)
		for _, f := range r.WriteFailures {
			fmt.Fprintf(w, "  %s: %s\n", f.ServiceOrderNumber, f.Error)
		}
		fmt.Fprintln(w)
	}

	if config.Verbose {
		for _, r := range results {
			fmt.Fprintf(w, "%s run %s: %d batches, %d skipped rows, %d zero-percent orders, %v\n",
				r.Report, r.RunID, r.Batches, r.RowsSkipped, r.ZeroPercent, r.Duration)
		}
	}
	return nil
}

func generateRefreshText(result *dto.RefreshResult, config Config) error {
	w := config.out()
	fmt.Fprintf(w, "🔄 Refresh Results\n")
	fmt.Fprintf(w, "==================\n\n")
	fmt.Fprintf(w, "Rows Cleared: %d\n", result.RowsCleared)
	fmt.Fprintf(w, "Rows Copied: %d\n", result.RowsCopied)
	fmt.Fprintf(w, "Orders Deleted: %d\n", result.OrdersDeleted)
	fmt.Fprintf(w, "Rows Deleted: %d\n", result.RowsDeleted)
	if result.AuditFile != "" {
		fmt.Fprintf(w, "Audit File: %s (%d records)\n", result.AuditFile, result.AuditedRecords)
	}
	if config.Verbose {
		for table, n := range result.TablesCleared {
			fmt.Fprintf(w, "  %s: %d rows cleared\n", table, n)
		}
		fmt.Fprintf(w, "Duration: %v\n", result.Duration)
	}
	return nil
}
