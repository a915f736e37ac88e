package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineCountUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  LineCount
	}{
		{"numeric string", `"42"`, LineCount{N: 42, Valid: true}},
		{"padded string", `" 7 "`, LineCount{N: 7, Valid: true}},
		{"number", `13`, LineCount{N: 13, Valid: true}},
		{"float number", `3.0`, LineCount{N: 3, Valid: true}},
		{"binary marker", `"-"`, LineCount{}},
		{"empty string", `""`, LineCount{}},
		{"null", `null`, LineCount{}},
		{"object", `{"a":1}`, LineCount{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c LineCount
			require.NoError(t, json.Unmarshal([]byte(tt.input), &c))
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestEventDecodeKeepsMalformedFiles(t *testing.T) {
	raw := `{
		"type": "org.grimoirelab.events.git.commit",
		"source": "https://example.com/repo",
		"data": {
			"Author": "Jane <jane@example.com>",
			"message": "fix",
			"files": [
				{"file": "main.go", "added": "10", "removed": "2"},
				{"file": "logo.png", "added": "-", "removed": "-"}
			]
		}
	}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	assert.True(t, ev.IsCommit())
	require.Len(t, ev.Data.Files, 2)
	assert.Equal(t, LineCount{N: 10, Valid: true}, ev.Data.Files[0].Added)
	assert.False(t, ev.Data.Files[1].Added.Valid)
}

func TestMetricsEntryNullMetrics(t *testing.T) {
	doc := MetricsDocument{Packages: map[string]MetricsEntry{
		"SPDXRef-a": {},
		"SPDXRef-b": {Metrics: &RepositoryMetrics{TotalCommits: 1}, Repository: "https://example.com/b"},
	}}

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"SPDXRef-a":{"metrics":null}`)
	assert.Contains(t, string(out), `"repository":"https://example.com/b"`)
	assert.Contains(t, string(out), `"file_types_binary":0`)
}

func TestEventTimeUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"epoch seconds", `1741000000`, time.Unix(1741000000, 0).UTC()},
		{"fractional epoch", `1741000000.5`, time.Unix(1741000000, 500000000).UTC()},
		{"rfc3339", `"2025-03-03T11:06:40Z"`, time.Date(2025, 3, 3, 11, 6, 40, 0, time.UTC)},
		{"rfc3339 offset", `"2025-03-03T12:06:40+01:00"`, time.Date(2025, 3, 3, 11, 6, 40, 0, time.UTC)},
		{"null", `null`, time.Time{}},
		{"not a timestamp", `"yesterday"`, time.Time{}},
		{"date without zone", `"2025-03-01 10:00:00"`, time.Time{}},
		{"boolean", `true`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var et EventTime
			require.NoError(t, json.Unmarshal([]byte(tt.input), &et))
			assert.True(t, tt.want.Equal(et.Time), "got %s", et.Time)
		})
	}
}

func TestEventTimeWithin(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	assert.True(t, EventTime{from}.Within(from, to), "lower bound is inclusive")
	assert.False(t, EventTime{to}.Within(from, to), "upper bound is exclusive")
	assert.True(t, EventTime{to}.Within(from, time.Time{}))
	assert.False(t, EventTime{from.Add(-time.Second)}.Within(from, time.Time{}))
	assert.True(t, EventTime{}.Within(time.Time{}, time.Time{}))
	assert.False(t, EventTime{}.Within(from, time.Time{}))
}
