package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/internal/history"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// runs is the run store opened by the setup of the running command.
// It is nil when run history is disabled.
var runs contract.RunStore

// rootCmd computes the metrics of the repositories listed in an SBOM.
var rootCmd = &cobra.Command{
	Use:   "grimoirelab-metrics FILENAME",
	Short: "Compute commit metrics for the git repositories listed in an SBOM.",
	Long: `grimoirelab-metrics reads an SPDX SBOM, asks GrimoireLab to ingest every git
repository it references, waits for the ingestion to finish and computes
commit metrics from the events indexed in OpenSearch.

The output is one entry per SBOM package:
  {"packages": {ID: {"metrics": {...}, "repository": URI} | {"metrics": null}}}

Packages without a git repository, or whose repository was not ready before
--repository-timeout, get null metrics.

Examples:
  # Compute metrics for the last year
  grimoirelab-metrics sbom.spdx.json --grimoirelab-url http://localhost:8000

  # Restrict the commit range and print a table
  grimoirelab-metrics sbom.spdx --grimoirelab-url http://localhost:8000 \
    --from-date 2024-01-01 --to-date 2025-01-01 --format table`,
	Version:            version,
	Args:               cobra.ExactArgs(1),
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	PreRunE:            sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runMetrics(rootCtx, cfg, runs)
	},
	PostRun: func(_ *cobra.Command, _ []string) {
		history.CloseHistory(runs)
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix
	viper.SetEnvPrefix("GRIMOIRELAB_METRICS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("opensearch-url", contract.DefaultOpenSearchURL)
	viper.SetDefault("opensearch-index", contract.DefaultOpenSearchIndex)
	viper.SetDefault("format", schema.JSONOut)
	viper.SetDefault("repository-timeout", contract.DefaultRepositoryTimeout)
	viper.SetDefault("poll-interval", contract.DefaultPollInterval)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("history-backend", "")
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("color", "yes")
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".grimoirelab-metrics") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ *cobra.Command, args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	if len(args) > 0 {
		input.SBOMFile = args[0]
	}

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input, time.Now()); err != nil {
		return err
	}
	color.NoColor = !cfg.UseColors

	// 5. Open run history with validated config
	store, err := history.OpenHistory(cfg.HistoryBackend, cfg.HistoryDBConnect)
	if err != nil {
		return err
	}
	runs = store
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide PreRunE for commands.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(cmd, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
