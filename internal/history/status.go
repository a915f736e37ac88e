package history

import (
	"fmt"
	"io"
	"slices"

	"github.com/bitergia/grimoirelab-metrics/schema"
)

const statusTimeLayout = "2006-01-02 15:04:05"

// PrintHistoryStatus prints run history status information.
func PrintHistoryStatus(w io.Writer, status schema.HistoryStatus) {
	_, _ = fmt.Fprintf(w, "History Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format(statusTimeLayout))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Format(statusTimeLayout))
		_, _ = fmt.Fprintf(w, "Total Packages Measured: %d\n", status.TotalPackages)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}

// PrintRuns prints one line per run.
func PrintRuns(w io.Writer, runs []schema.RunRecord) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, run := range runs {
		duration := "running"
		if run.RunDurationMs != nil {
			duration = fmt.Sprintf("%dms", *run.RunDurationMs)
		}
		_, _ = fmt.Fprintf(w, "#%d  %s  %s  packages=%d repositories=%d timed_out=%d\n",
			run.RunID, run.StartTime.Format(statusTimeLayout), duration,
			run.TotalPackages, run.TotalRepositories, run.TimedOut)
	}
}
