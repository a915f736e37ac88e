package cmd

import (
	"context"

	"github.com/bitergia/grimoirelab-metrics/core"
	"github.com/bitergia/grimoirelab-metrics/core/agg"
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/internal/eventfile"
	"github.com/bitergia/grimoirelab-metrics/internal/outwriter"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/spf13/cobra"
)

// analyzeCmd computes metrics from exported event files.
var analyzeCmd = &cobra.Command{
	Use:   "analyze EVENTS_FILE...",
	Short: "Compute commit metrics from exported event files",
	Long: `Compute the same commit metrics as the main command from files of events
exported from the events index, without GrimoireLab or OpenSearch.

Files may hold a JSON array of events or one JSON event per line. Commit
events are grouped by their source repository and the date range flags
apply as usual.

Examples:
  # Metrics of every repository in a dump
  grimoirelab-metrics analyze events.ndjson

  # CSV for a single quarter
  grimoirelab-metrics analyze a.json b.json --from-date 2025-01-01 --to-date 2025-04-01 --format csv`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return sharedSetup(cmd, nil)
	},
	RunE: func(_ *cobra.Command, args []string) error {
		return runAnalyze(rootCtx, cfg, args)
	},
}

// runAnalyze analyzes the commit events of files and writes a per-repository document.
func runAnalyze(ctx context.Context, cfg *contract.Config, files []string) error {
	var events []schema.Event
	for _, path := range files {
		loaded, err := eventfile.Load(path)
		if err != nil {
			return err
		}
		events = append(events, loaded...)
	}

	source := eventfile.NewSource(events)
	assembler := core.NewAssembler(source, agg.NewClassifier(cfg.CodePattern, cfg.BinaryPattern))
	doc, err := core.AnalyzeRepositories(ctx, assembler, source.Repositories(), cfg.FromDate, cfg.ToDate)
	if err != nil {
		return err
	}

	data, err := outwriter.RenderRepositoryDocument(doc, outwriter.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}
	if err := outwriter.WriteOutput(cfg.OutputFile, data, "Wrote metrics"); err != nil {
		return err
	}
	return uploadDocument(ctx, cfg, &awsServices{region: cfg.AWSRegion}, data)
}
