// Package cmd defines the command-line interface for grimoirelab-metrics.
package cmd

import (
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("grimoirelab-url", "", "GrimoireLab API URL")
	rootCmd.PersistentFlags().String("grimoirelab-user", "", "GrimoireLab API user")
	rootCmd.PersistentFlags().String("grimoirelab-password", "", "GrimoireLab API password (prefer the env var)")
	rootCmd.PersistentFlags().String("grimoirelab-password-secret", "", "AWS Secrets Manager id holding the GrimoireLab password")
	rootCmd.PersistentFlags().String("aws-region", "", "AWS region for Secrets Manager and S3 (SDK default when empty)")
	rootCmd.PersistentFlags().String("opensearch-url", contract.DefaultOpenSearchURL, "OpenSearch URL")
	rootCmd.PersistentFlags().String("opensearch-index", contract.DefaultOpenSearchIndex, "OpenSearch index holding the events")
	rootCmd.PersistentFlags().Bool("verify-certs", false, "Verify TLS certificates of OpenSearch and GrimoireLab")
	rootCmd.PersistentFlags().StringP("output", "o", "", "File to write the metrics document to (default stdout)")
	rootCmd.PersistentFlags().String("format", string(schema.JSONOut), "Output format: json or yaml or csv or table")
	rootCmd.PersistentFlags().String("s3-uri", "", "Upload the rendered document to s3://bucket/key")
	rootCmd.PersistentFlags().Int("repository-timeout", contract.DefaultRepositoryTimeout, "Seconds to wait for repositories to be ready")
	rootCmd.PersistentFlags().Duration("poll-interval", contract.DefaultPollInterval, "Time between readiness checks")
	rootCmd.PersistentFlags().String("from-date", "", "Only commits on or after this date, YYYY-MM-DD (default one year ago)")
	rootCmd.PersistentFlags().String("to-date", "", "Only commits before this date, YYYY-MM-DD")
	rootCmd.PersistentFlags().String("code-file-pattern", "", "Regular expression of code file paths")
	rootCmd.PersistentFlags().String("binary-file-pattern", "", "Regular expression of binary file paths")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent metrics computations")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("color", "yes", "Colorize log levels and table labels: yes or no")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug messages")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of historyListCmd to Viper
	historyListCmd.Flags().Int("limit", contract.DefaultHistoryLimit, "Number of runs to list")
	if err := viper.BindPFlags(historyListCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history list flags", err)
	}

	// Bind all flags of historyExportCmd to Viper
	historyExportCmd.Flags().String("output-file", "", "Prefix of the exported Parquet files")
	if err := viper.BindPFlags(historyExportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history export flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
