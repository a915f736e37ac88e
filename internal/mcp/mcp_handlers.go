package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitergia/grimoirelab-metrics/core"
	"github.com/bitergia/grimoirelab-metrics/core/agg"
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/internal/eventfile"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	source  contract.EventSource
	history contract.RunStore
}

// requestConfig clones the base config and applies the date overrides of a request.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	fromDate := request.GetString("from_date", "")
	toDate := request.GetString("to_date", "")
	if err := contract.RevalidateDateRange(cfg, fromDate, toDate, time.Now()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (h *toolHandler) classifier(cfg *contract.Config) agg.Classifier {
	return agg.NewClassifier(cfg.CodePattern, cfg.BinaryPattern)
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleAnalyzeEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("events_file", "")
	if path == "" {
		return mcp.NewToolResultError("events_file is required"), nil
	}
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date range: %v", err)), nil
	}

	events, err := eventfile.Load(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading events failed: %v", err)), nil
	}
	source := eventfile.NewSource(events)

	repositories := source.Repositories()
	if r := request.GetString("repository", ""); r != "" {
		repositories = []string{r}
	}

	assembler := core.NewAssembler(source, h.classifier(cfg))
	doc, err := core.AnalyzeRepositories(ctx, assembler, repositories, cfg.FromDate, cfg.ToDate)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(doc), nil
}

func (h *toolHandler) handleRepositoryMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository := request.GetString("repository", "")
	if repository == "" {
		return mcp.NewToolResultError("repository is required"), nil
	}
	if h.source == nil {
		return mcp.NewToolResultError("no OpenSearch connection is configured"), nil
	}
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date range: %v", err)), nil
	}

	assembler := core.NewAssembler(h.source, h.classifier(cfg))
	metrics, err := assembler.RepositoryMetrics(ctx, repository, cfg.FromDate, cfg.ToDate)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("metrics failed: %v", err)), nil
	}
	return jsonResult(metrics), nil
}

func (h *toolHandler) handleCountCommits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repository := request.GetString("repository", "")
	if repository == "" {
		return mcp.NewToolResultError("repository is required"), nil
	}
	if h.source == nil {
		return mcp.NewToolResultError("no OpenSearch connection is configured"), nil
	}
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date range: %v", err)), nil
	}

	count, err := core.CountCommits(ctx, h.source, repository, cfg.FromDate, cfg.ToDate)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"repository": repository, "commits": count}), nil
}

func (h *toolHandler) handleListRuns(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.history == nil {
		return mcp.NewToolResultError("run history is disabled"), nil
	}
	runs, err := h.history.ListRuns(request.GetInt("limit", contract.DefaultHistoryLimit))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing runs failed: %v", err)), nil
	}
	return jsonResult(runs), nil
}
