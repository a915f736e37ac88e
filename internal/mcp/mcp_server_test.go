package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	mcp_internal "github.com/bitergia/grimoirelab-metrics/internal/mcp"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const repo = "https://github.com/chaoss/grimoirelab"

var eventsFile = filepath.Join("..", "eventfile", "testdata", "events.json")

func callTool(t *testing.T, baseCfg *contract.Config, source contract.EventSource, history contract.RunStore, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(baseCfg, source, history)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	baseCfg := &contract.Config{}

	tests := []struct {
		name      string
		tool      string
		args      map[string]any
		source    contract.EventSource
		expectErr string
	}{
		{"analyze_events missing file", "analyze_events", map[string]any{}, nil, "events_file is required"},
		{"analyze_events bad date", "analyze_events", map[string]any{"events_file": eventsFile, "from_date": "2024/01/01"}, nil, "invalid --from-date"},
		{"analyze_events inverted range", "analyze_events", map[string]any{"events_file": eventsFile, "from_date": "2024-06-01", "to_date": "2024-01-01"}, nil, "must be after"},
		{"analyze_events missing file on disk", "analyze_events", map[string]any{"events_file": filepath.Join(t.TempDir(), "none.json")}, nil, "loading events failed"},
		{"repository_metrics missing repository", "repository_metrics", map[string]any{}, nil, "repository is required"},
		{"repository_metrics without source", "repository_metrics", map[string]any{"repository": repo}, nil, "no OpenSearch connection"},
		{"count_commits bad date", "count_commits", map[string]any{"repository": repo, "to_date": "tomorrow"}, &contract.MockEventSource{}, "invalid --to-date"},
		{"list_runs without history", "list_runs", map[string]any{}, nil, "run history is disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, baseCfg, tt.source, nil, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.expectErr)
		})
	}
}

func TestAnalyzeEvents(t *testing.T) {
	res := callTool(t, &contract.Config{}, nil, nil, "analyze_events", map[string]any{"events_file": eventsFile})
	require.False(t, res.IsError, resultText(res))

	var doc schema.RepositoryDocument
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &doc))
	require.Contains(t, doc.Repositories, "https://github.com/example/project")
	m := doc.Repositories["https://github.com/example/project"].Metrics
	require.NotNil(t, m)
	assert.Equal(t, 3, m.TotalCommits)
}

func TestAnalyzeEventsUnknownRepository(t *testing.T) {
	res := callTool(t, &contract.Config{}, nil, nil, "analyze_events", map[string]any{
		"events_file": eventsFile,
		"repository":  repo,
	})
	require.False(t, res.IsError, resultText(res))

	var doc schema.RepositoryDocument
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &doc))
	require.Contains(t, doc.Repositories, repo)
	assert.Equal(t, 0, doc.Repositories[repo].Metrics.TotalCommits)
}

func TestRepositoryMetrics(t *testing.T) {
	source := &contract.MockEventSource{}
	source.On("Events", mock.Anything, mock.MatchedBy(func(q contract.EventQuery) bool {
		return q.Repository == repo &&
			q.From.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) &&
			q.To.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	})).Return([]schema.Event{
		{Type: schema.CommitEventType, Source: repo, Data: schema.CommitData{Author: "Jane Roe <jane@example.com>"}},
		{Type: schema.CommitEventType, Source: repo, Data: schema.CommitData{Author: "John Doe <john@example.com>"}},
	}, nil)

	res := callTool(t, &contract.Config{}, source, nil, "repository_metrics", map[string]any{
		"repository": repo,
		"from_date":  "2025-01-01",
		"to_date":    "2025-02-01",
	})
	require.False(t, res.IsError, resultText(res))

	var m schema.RepositoryMetrics
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &m))
	assert.Equal(t, 2, m.TotalCommits)
	assert.Equal(t, 2, m.TotalContributors)
	source.AssertExpectations(t)
}

func TestRepositoryMetricsSourceError(t *testing.T) {
	source := &contract.MockEventSource{}
	source.On("Events", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	res := callTool(t, &contract.Config{}, source, nil, "repository_metrics", map[string]any{"repository": repo})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "connection refused")
}

func TestCountCommits(t *testing.T) {
	source := &contract.MockEventSource{}
	source.On("Events", mock.Anything, mock.MatchedBy(func(q contract.EventQuery) bool {
		return q.Repository == repo
	})).Return([]schema.Event{
		{Type: schema.CommitEventType},
		{Type: schema.CommitEventType},
		{Type: schema.CommitEventType},
	}, nil)

	res := callTool(t, &contract.Config{}, source, nil, "count_commits", map[string]any{"repository": repo})
	require.False(t, res.IsError, resultText(res))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
	assert.Equal(t, repo, got["repository"])
	assert.InDelta(t, 3, got["commits"], 0)
}

func TestListRuns(t *testing.T) {
	history := &contract.MockRunStore{}
	history.On("ListRuns", 5).Return([]schema.RunRecord{
		{RunID: 2, StartTime: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), TotalPackages: 4},
		{RunID: 1, StartTime: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), TotalPackages: 3},
	}, nil)

	res := callTool(t, &contract.Config{}, nil, history, "list_runs", map[string]any{"limit": 5.0})
	require.False(t, res.IsError, resultText(res))

	var runs []schema.RunRecord
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, int64(2), runs[0].RunID)
	history.AssertExpectations(t)
}

func TestListRunsDefaultLimit(t *testing.T) {
	history := &contract.MockRunStore{}
	history.On("ListRuns", contract.DefaultHistoryLimit).Return([]schema.RunRecord{}, nil)

	res := callTool(t, &contract.Config{}, nil, history, "list_runs", map[string]any{})
	require.False(t, res.IsError, resultText(res))
	assert.Equal(t, "[]", resultText(res))
	history.AssertExpectations(t)
}
