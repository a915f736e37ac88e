package history

import (
	"errors"
	"fmt"
	"io"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/internal/parquet"
)

// ExportHistory writes every recorded run and package row to Parquet files
// named after outputFile.
func ExportHistory(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run history is disabled")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total package records: %d\n", status.TableSizes[packageMetricsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	packages, err := store.GetAllPackageMetrics()
	if err != nil {
		return fmt.Errorf("failed to retrieve package metrics: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetPackages := parquet.ConvertPackageMetricsRecords(packages)

	runsFile := outputFile + ".metrics_runs.parquet"
	if err := parquet.WriteMetricsRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	packagesFile := outputFile + ".package_metrics.parquet"
	if err := parquet.WritePackageMetricsParquet(parquetPackages, packagesFile); err != nil {
		return fmt.Errorf("failed to write package metrics: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d package records to: %s\n", len(parquetPackages), packagesFile)

	return nil
}
