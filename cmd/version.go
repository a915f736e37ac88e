package cmd

import (
	"runtime"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/spf13/cobra"
)

// versionCmd shows the build and the GrimoireLab event contract it reads.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of grimoirelab-metrics.",
	Long: `Display version information and the event contract of this build.

Shows:
- Release version, git commit and build timestamp
- Go runtime version
- Default OpenSearch index and the commit event type it queries
- Readiness lookback used to decide if a repository is freshly ingested`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("grimoirelab-metrics CLI\n")
		cmd.Printf("  Version:    %s\n", version)
		cmd.Printf("  Commit:     %s\n", commit)
		cmd.Printf("  Built:      %s\n", date)
		cmd.Printf("  Runtime:    %s\n", runtime.Version())
		cmd.Printf("  Index:      %s\n", contract.DefaultOpenSearchIndex)
		cmd.Printf("  Event type: %s\n", schema.CommitEventType)
		cmd.Printf("  Lookback:   %s\n", contract.DefaultLookback)
	},
}
