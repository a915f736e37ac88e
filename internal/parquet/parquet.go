// Package parquet provides data structures and functions for exporting run
// history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/parquet-go/parquet-go"
)

// MetricsRun represents a single metrics run with metadata.
// This struct maps to the metrics_runs database table.
type MetricsRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	TotalPackages     int32 `parquet:"total_packages,snappy"`
	TotalRepositories int32 `parquet:"total_repositories,snappy"`
	TimedOut          int32 `parquet:"timed_out,snappy"`

	// ConfigParams contains the JSON-encoded run settings (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// PackageMetrics holds the metrics of one SBOM package in a run.
// This struct maps to the package_metrics database table.
type PackageMetrics struct {
	RunID      int64   `parquet:"run_id,snappy"`
	PackageID  string  `parquet:"package_id,snappy"`
	Repository *string `parquet:"repository,optional,snappy"`

	// HasMetrics is false when the repository timed out or was never found.
	// The metric columns are zero in that case.
	HasMetrics bool `parquet:"has_metrics"`

	TotalCommits               int32   `parquet:"total_commits,snappy"`
	TotalContributors          int32   `parquet:"total_contributors,snappy"`
	PonyFactor                 int32   `parquet:"pony_factor,snappy"`
	ElephantFactor             int32   `parquet:"elephant_factor,snappy"`
	CommitsWeekMean            float64 `parquet:"commits_week_mean,snappy"`
	FileTypesCode              int32   `parquet:"file_types_code,snappy"`
	FileTypesBinary            int32   `parquet:"file_types_binary,snappy"`
	FileTypesOther             int32   `parquet:"file_types_other,snappy"`
	CommitSizeAddedLines       int64   `parquet:"commit_size_added_lines,snappy"`
	CommitSizeRemovedLines     int64   `parquet:"commit_size_removed_lines,snappy"`
	MessageSizeTotal           int64   `parquet:"message_size_total,snappy"`
	MessageSizeMean            float64 `parquet:"message_size_mean,snappy"`
	MessageSizeMedian          int32   `parquet:"message_size_median,snappy"`
	DeveloperCategoriesCore    int32   `parquet:"developer_categories_core,snappy"`
	DeveloperCategoriesRegular int32   `parquet:"developer_categories_regular,snappy"`
	DeveloperCategoriesCasual  int32   `parquet:"developer_categories_casual,snappy"`
}

// WriteMetricsRunsParquet writes a slice of MetricsRun structs to a Parquet file.
func WriteMetricsRunsParquet(data []MetricsRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WritePackageMetricsParquet writes a slice of PackageMetrics structs to a Parquet file.
func WritePackageMetricsParquet(data []PackageMetrics, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows to outputPath with the schema inferred from T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return nil
}

// ConvertRunRecords converts schema.RunRecord to MetricsRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []MetricsRun {
	result := make([]MetricsRun, len(records))
	for i, record := range records {
		result[i] = MetricsRun{
			RunID:             record.RunID,
			StartTime:         record.StartTime,
			EndTime:           record.EndTime,
			RunDurationMs:     record.RunDurationMs,
			TotalPackages:     int32(record.TotalPackages),
			TotalRepositories: int32(record.TotalRepositories),
			TimedOut:          int32(record.TimedOut),
			ConfigParams:      record.ConfigParams,
		}
	}
	return result
}

// ConvertPackageMetricsRecords converts schema.PackageMetricsRecord to PackageMetrics for Parquet export.
func ConvertPackageMetricsRecords(records []schema.PackageMetricsRecord) []PackageMetrics {
	result := make([]PackageMetrics, len(records))
	for i, record := range records {
		row := PackageMetrics{
			RunID:      record.RunID,
			PackageID:  record.PackageID,
			Repository: record.Repository,
		}
		if m := record.Metrics; m != nil {
			row.HasMetrics = true
			row.TotalCommits = int32(m.TotalCommits)
			row.TotalContributors = int32(m.TotalContributors)
			row.PonyFactor = int32(m.PonyFactor)
			row.ElephantFactor = int32(m.ElephantFactor)
			row.CommitsWeekMean = m.CommitsWeekMean
			row.FileTypesCode = int32(m.FileTypesCode)
			row.FileTypesBinary = int32(m.FileTypesBinary)
			row.FileTypesOther = int32(m.FileTypesOther)
			row.CommitSizeAddedLines = int64(m.CommitSizeAddedLines)
			row.CommitSizeRemovedLines = int64(m.CommitSizeRemovedLines)
			row.MessageSizeTotal = int64(m.MessageSizeTotal)
			row.MessageSizeMean = m.MessageSizeMean
			row.MessageSizeMedian = int32(m.MessageSizeMedian)
			row.DeveloperCategoriesCore = int32(m.DeveloperCategoriesCore)
			row.DeveloperCategoriesRegular = int32(m.DeveloperCategoriesRegular)
			row.DeveloperCategoriesCasual = int32(m.DeveloperCategoriesCasual)
		}
		result[i] = row
	}
	return result
}
