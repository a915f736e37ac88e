// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the metrics MCP server without starting it.
// source serves repository queries and may be nil when no search backend is
// configured. history may be nil when run history is disabled.
func NewMCPServer(baseCfg *contract.Config, source contract.EventSource, history contract.RunStore) *server.MCPServer {
	s := server.NewMCPServer(
		"GrimoireLab Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		source:  source,
		history: history,
	}

	s.AddTool(mcp.NewTool("analyze_events",
		mcp.WithDescription("Compute commit metrics from a file of exported GrimoireLab events (JSON array or NDJSON)."),
		mcp.WithString("events_file", mcp.Description("Path to the events file."), mcp.Required()),
		mcp.WithString("repository", mcp.Description("Only analyze this repository URI. Defaults to every repository in the file.")),
		mcp.WithString("from_date", mcp.Description("Start of the date range (YYYY-MM-DD).")),
		mcp.WithString("to_date", mcp.Description("End of the date range, exclusive (YYYY-MM-DD).")),
	), h.handleAnalyzeEvents)

	s.AddTool(mcp.NewTool("repository_metrics",
		mcp.WithDescription("Compute the commit metrics of one repository from the OpenSearch events index."),
		mcp.WithString("repository", mcp.Description("Repository URI as indexed by GrimoireLab."), mcp.Required()),
		mcp.WithString("from_date", mcp.Description("Start of the date range (YYYY-MM-DD).")),
		mcp.WithString("to_date", mcp.Description("End of the date range, exclusive (YYYY-MM-DD).")),
	), h.handleRepositoryMetrics)

	s.AddTool(mcp.NewTool("count_commits",
		mcp.WithDescription("Count the indexed commits of one repository."),
		mcp.WithString("repository", mcp.Description("Repository URI as indexed by GrimoireLab."), mcp.Required()),
		mcp.WithString("from_date", mcp.Description("Start of the date range (YYYY-MM-DD).")),
		mcp.WithString("to_date", mcp.Description("End of the date range, exclusive (YYYY-MM-DD).")),
	), h.handleCountCommits)

	s.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the most recent metrics runs recorded in the run history."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return.")),
	), h.handleListRuns)

	return s
}

// StartMCPServer serves the metrics MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, source contract.EventSource, history contract.RunStore) error {
	s := NewMCPServer(baseCfg, source, history)
	return server.ServeStdio(s)
}
