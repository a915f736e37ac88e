package cmd

import (
	"fmt"
	"os"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/internal/history"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromViper reads and validates the history backend settings.
// An empty backend means history is disabled and maps to NoneBackend.
func historyBackendFromViper() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.NoneBackend
	if backendStr := viper.GetString("history-backend"); backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}

	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This avoids the GrimoireLab and date range validation of the main command.
func historySetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}
	store, err := history.OpenHistory(backend, connStr)
	if err != nil {
		return err
	}
	runs = store

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historyMigrateSetup loads the backend without initializing the store or
// creating tables, so migrations can run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd manages the recorded metrics runs.
//
// History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by the metrics commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of metrics runs",
	Long: `Manage the metrics runs recorded when --history-backend is set.

Every run stores:
- Run metadata (start and end time, duration, configuration)
- Package and repository totals, and the number of timed out repositories
- The metrics of each SBOM package

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics
  list    - List the most recent runs
  export  - Export data to Parquet for analytics
  clear   - Remove all recorded runs
  migrate - Run database schema migrations

Examples:
  # Check history status
  grimoirelab-metrics history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  grimoirelab-metrics history export --history-backend sqlite --output-file metrics`,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		history.CloseHistory(runs)
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display history statistics and connection details",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := runs.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		history.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyListCmd lists the most recent runs.
var historyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the most recent metrics runs",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		runs, err := runs.ListRuns(viper.GetInt("limit"))
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		history.PrintRuns(os.Stdout, runs)
	},
}

// historyExportCmd exports history data to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs to Parquet for BI tools and analytics",
	Long: `Export every recorded run to Parquet.

Writes two files:
- PREFIX.metrics_runs.parquet - metadata about each run
- PREFIX.package_metrics.parquet - the metrics of each package per run

Requires: --output-file parameter

Examples:
  grimoirelab-metrics history export --output-file metrics
  duckdb -c "SELECT * FROM read_parquet('metrics.package_metrics.parquet') LIMIT 10"`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := history.ExportHistory(os.Stdout, runs, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyClearCmd clears the history data.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded metrics runs",
	Long: `Delete all recorded runs and package metrics.

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := history.ClearHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  grimoirelab-metrics history migrate --history-backend sqlite

  # Rollback to the initial state
  grimoirelab-metrics history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := history.MigrateHistory(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
