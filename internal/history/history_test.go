package history

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *RunStoreImpl {
	t.Helper()
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleMetrics() *schema.RepositoryMetrics {
	return &schema.RepositoryMetrics{
		TotalCommits:               9,
		TotalContributors:          4,
		PonyFactor:                 2,
		ElephantFactor:             1,
		CommitsWeekMean:            0.17,
		FileTypesCode:              11,
		FileTypesBinary:            1,
		FileTypesOther:             3,
		CommitSizeAddedLines:       420,
		CommitSizeRemovedLines:     37,
		MessageSizeTotal:           305,
		MessageSizeMean:            33.89,
		MessageSizeMedian:          28,
		DeveloperCategoriesCore:    2,
		DeveloperCategoriesRegular: 1,
		DeveloperCategoriesCasual:  1,
	}
}

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), map[string]any{"sbom": "x.json"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.RecordPackageMetrics(1, "SPDXRef-a", "", nil))
	assert.NoError(t, store.EndRun(1, time.Now(), schema.RunSummary{}))

	runs, err := store.ListRuns(5)
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestRunStore_UnsupportedBackend(t *testing.T) {
	_, err := NewRunStore(schema.DatabaseBackend("oracle"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}

func TestRunStore_SQLiteRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)

	start := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun(start, map[string]any{"sbom": "sbom.spdx.json", "workers": 4})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	require.NoError(t, store.RecordPackageMetrics(runID, "SPDXRef-grimoirelab", "https://github.com/chaoss/grimoirelab", sampleMetrics()))
	require.NoError(t, store.RecordPackageMetrics(runID, "SPDXRef-perceval", "https://github.com/chaoss/grimoirelab-perceval", nil))
	require.NoError(t, store.RecordPackageMetrics(runID, "SPDXRef-ncurses", "", nil))

	end := start.Add(90 * time.Second)
	require.NoError(t, store.EndRun(runID, end, schema.RunSummary{TotalPackages: 3, TotalRepositories: 2, TimedOut: 1}))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.True(t, start.Equal(run.StartTime))
	require.NotNil(t, run.EndTime)
	assert.True(t, end.Equal(*run.EndTime))
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int64(90000), *run.RunDurationMs)
	assert.Equal(t, 3, run.TotalPackages)
	assert.Equal(t, 2, run.TotalRepositories)
	assert.Equal(t, 1, run.TimedOut)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"sbom":"sbom.spdx.json","workers":4}`, *run.ConfigParams)

	rows, err := store.GetAllPackageMetrics()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Rows come back ordered by package id
	assert.Equal(t, "SPDXRef-grimoirelab", rows[0].PackageID)
	require.NotNil(t, rows[0].Repository)
	assert.Equal(t, "https://github.com/chaoss/grimoirelab", *rows[0].Repository)
	assert.Equal(t, sampleMetrics(), rows[0].Metrics)

	assert.Equal(t, "SPDXRef-ncurses", rows[1].PackageID)
	assert.Nil(t, rows[1].Repository)
	assert.Nil(t, rows[1].Metrics)

	assert.Equal(t, "SPDXRef-perceval", rows[2].PackageID)
	require.NotNil(t, rows[2].Repository)
	assert.Nil(t, rows[2].Metrics)
}

func TestRunStore_DuplicatePackage(t *testing.T) {
	store := newSQLiteStore(t)

	runID, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)

	require.NoError(t, store.RecordPackageMetrics(runID, "SPDXRef-a", "", nil))
	err = store.RecordPackageMetrics(runID, "SPDXRef-a", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPDXRef-a")
}

func TestRunStore_EndUnknownRun(t *testing.T) {
	store := newSQLiteStore(t)

	err := store.EndRun(42, time.Now(), schema.RunSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 42")
}

func TestRunStore_ListRunsNewestFirst(t *testing.T) {
	store := newSQLiteStore(t)

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		_, err := store.BeginRun(start.Add(time.Duration(i)*time.Hour), nil)
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int64{5, 4, 3}, []int64{runs[0].RunID, runs[1].RunID, runs[2].RunID})
	assert.Nil(t, runs[0].EndTime)
	assert.Nil(t, runs[0].RunDurationMs)

	runs, err = store.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestRunStore_Status(t *testing.T) {
	store := newSQLiteStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[metricsRunsTable])

	first := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	id1, err := store.BeginRun(first, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordPackageMetrics(id1, "SPDXRef-a", "https://example.com/a", sampleMetrics()))
	require.NoError(t, store.EndRun(id1, first.Add(time.Minute), schema.RunSummary{TotalPackages: 1, TotalRepositories: 1}))

	id2, err := store.BeginRun(second, nil)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(id2, second.Add(time.Minute), schema.RunSummary{TotalPackages: 4}))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, id2, status.LastRunID)
	assert.True(t, second.Equal(status.LastRunTime))
	assert.True(t, first.Equal(status.OldestRunTime))
	assert.Equal(t, 5, status.TotalPackages)
	assert.Equal(t, int64(2), status.TableSizes[metricsRunsTable])
	assert.Equal(t, int64(1), status.TableSizes[packageMetricsTable])
}

func TestExportHistory(t *testing.T) {
	store := newSQLiteStore(t)

	runID, err := store.BeginRun(time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordPackageMetrics(runID, "SPDXRef-a", "https://example.com/a", sampleMetrics()))
	require.NoError(t, store.EndRun(runID, time.Date(2026, 10, 15, 8, 5, 0, 0, time.UTC), schema.RunSummary{TotalPackages: 1}))

	prefix := filepath.Join(t.TempDir(), "history")
	var out bytes.Buffer
	require.NoError(t, ExportHistory(&out, store, prefix))

	for _, suffix := range []string{".metrics_runs.parquet", ".package_metrics.parquet"} {
		info, err := os.Stat(prefix + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Contains(t, out.String(), "Exported 1 runs to:")
	assert.Contains(t, out.String(), "Exported 1 package records to:")
}

func TestExportHistory_Errors(t *testing.T) {
	var out bytes.Buffer

	err := ExportHistory(&out, newSQLiteStore(t), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file")

	err = ExportHistory(&out, nil, "out")
	require.Error(t, err)

	err = ExportHistory(&out, newSQLiteStore(t), filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run history")

	mockStore := &contract.MockRunStore{}
	mockStore.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("connection reset"))
	err = ExportHistory(&out, mockStore, "out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	mockStore.AssertExpectations(t)
}

func TestMigrateHistory_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	var out bytes.Buffer

	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "Successfully migrated from version 0 to version 1")

	out.Reset()
	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "No migration needed")

	// The migrated schema is usable by the store
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	_, err = store.BeginRun(time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, MigrateHistory(&out, schema.SQLiteBackend, dbPath, 0))
	assert.Contains(t, out.String(), "rolled back from version 1 to version 0")
}

func TestMigrateHistory_NoneBackend(t *testing.T) {
	err := MigrateHistory(&bytes.Buffer{}, schema.NoneBackend, "", -1)
	require.Error(t, err)
}

func TestClearHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Missing files are fine
	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	require.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	require.Error(t, ClearHistory(schema.SQLiteBackend, "", ""))
	require.Error(t, ClearHistory(schema.DatabaseBackend("oracle"), "", ""))
}

func TestOpenHistory(t *testing.T) {
	disabled, err := OpenHistory("", "")
	require.NoError(t, err)
	assert.Nil(t, disabled)
	CloseHistory(disabled)

	_, err = OpenHistory(schema.DatabaseBackend("oracle"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize run history")

	// Each call opens its own store.
	first, err := OpenHistory(schema.SQLiteBackend, filepath.Join(t.TempDir(), "first.db"))
	require.NoError(t, err)
	defer CloseHistory(first)
	second, err := OpenHistory(schema.SQLiteBackend, filepath.Join(t.TempDir(), "second.db"))
	require.NoError(t, err)
	defer CloseHistory(second)

	runID, err := first.BeginRun(time.Now(), map[string]any{"sbom_file": "sbom.spdx.json"})
	require.NoError(t, err)
	require.NoError(t, first.EndRun(runID, time.Now(), schema.RunSummary{TotalPackages: 1}))

	firstRuns, err := first.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, firstRuns, 1)
	secondRuns, err := second.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, secondRuns)
}

func TestPrintHistoryStatus(t *testing.T) {
	var out bytes.Buffer
	PrintHistoryStatus(&out, schema.HistoryStatus{Backend: "none"})
	assert.Equal(t, "History Backend: none\nConnected: false\n", out.String())

	out.Reset()
	PrintHistoryStatus(&out, schema.HistoryStatus{
		Backend:       "sqlite",
		Connected:     true,
		TotalRuns:     2,
		LastRunID:     2,
		LastRunTime:   time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
		OldestRunTime: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
		TotalPackages: 10,
		TableSizes:    map[string]int64{packageMetricsTable: 10, metricsRunsTable: 2},
	})
	assert.Contains(t, out.String(), "Last Run: 2026-10-15 08:00:00\n")
	assert.Contains(t, out.String(), "Total Packages Measured: 10\n")
	assert.Contains(t, out.String(), "  metrics_runs: 2 rows\n  package_metrics: 10 rows\n")
}

func TestPrintRuns(t *testing.T) {
	var out bytes.Buffer
	PrintRuns(&out, nil)
	assert.Equal(t, "No runs recorded.\n", out.String())

	out.Reset()
	duration := int64(1200)
	PrintRuns(&out, []schema.RunRecord{
		{RunID: 2, StartTime: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC), RunDurationMs: &duration, TotalPackages: 3, TotalRepositories: 2},
		{RunID: 1, StartTime: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)},
	})
	assert.Equal(t,
		"#2  2026-10-15 08:00:00  1200ms  packages=3 repositories=2 timed_out=0\n"+
			"#1  2026-10-14 08:00:00  running  packages=0 repositories=0 timed_out=0\n",
		out.String())
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("root:secret@tcp(localhost:3306)/metrics")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "multiStatements=true")

	_, err = mysqlDSN("not a dsn")
	require.Error(t, err)
}
