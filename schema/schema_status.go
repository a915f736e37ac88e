package schema

import "time"

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalPackages int              `json:"total_packages"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunSummary is recorded when a metrics run finishes.
type RunSummary struct {
	TotalPackages     int
	TotalRepositories int
	TimedOut          int
}

// RunRecord represents a row from the metrics_runs table.
type RunRecord struct {
	RunID             int64      `json:"run_id"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	RunDurationMs     *int64     `json:"run_duration_ms,omitempty"`
	TotalPackages     int        `json:"total_packages"`
	TotalRepositories int        `json:"total_repositories"`
	TimedOut          int        `json:"timed_out"`
	ConfigParams      *string    `json:"config_params,omitempty"`
}

// PackageMetricsRecord represents a row from the package_metrics table.
type PackageMetricsRecord struct {
	RunID      int64
	PackageID  string
	Repository *string
	Metrics    *RepositoryMetrics
}
