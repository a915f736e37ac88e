package cmd

import (
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/internal/history"
	"github.com/bitergia/grimoirelab-metrics/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the metrics MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents compute repository
metrics, count commits and inspect the run history.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return sharedSetup(cmd, nil)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		// Logs go to a discarded logger since stdio carries the protocol.
		source, err := newEventSource(cfg, contract.DiscardLogger())
		if err != nil {
			return err
		}
		return mcp.StartMCPServer(rootCtx, cfg, source, runs)
	},
	PostRun: func(_ *cobra.Command, _ []string) {
		history.CloseHistory(runs)
	},
}
