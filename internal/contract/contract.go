// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"io"
	"iter"
	"time"

	"github.com/bitergia/grimoirelab-metrics/schema"
)

// Projections of the event documents requested from the Event Source.
var (
	// CommitFields are the fields needed to compute every metric.
	CommitFields = []string{"type", "source", "data.Author", "data.message", "data.files"}

	// TypeOnlyFields are enough to count commits.
	TypeOnlyFields = []string{"type"}
)

// EventQuery selects the commit events of one repository.
// Zero From or To leaves that side of the time range open.
type EventQuery struct {
	Repository string
	From       time.Time
	To         time.Time
	Fields     []string
}

// EventSource streams indexed events.
// This allows the metrics assembler to be tested without a search backend.
type EventSource interface {
	// Events yields the commit events matching q. Iteration stops at the
	// first error, which is yielded with a zero event.
	Events(ctx context.Context, q EventQuery) iter.Seq2[schema.Event, error]
}

// TaskService is the part of the GrimoireLab API used to ingest repositories.
type TaskService interface {
	// ScheduleRepository asks GrimoireLab to ingest a repository. A repository
	// that is already scheduled is not an error.
	ScheduleRepository(ctx context.Context, uri, datasource, category string) error

	// RepositoryTask returns the latest ingestion task of a repository, or nil
	// when GrimoireLab has no record of it.
	RepositoryTask(ctx context.Context, uri string) (*schema.Task, error)
}

// RunStore defines the interface for tracking metrics runs.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// RecordPackageMetrics stores the metrics of one SBOM package. A nil
	// metrics value records a package without data.
	RecordPackageMetrics(runID int64, packageID, repository string, metrics *schema.RepositoryMetrics) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error

	// ListRuns returns the most recent runs, newest first
	ListRuns(limit int) ([]schema.RunRecord, error)

	// GetAllRuns returns every run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllPackageMetrics returns every recorded package row
	GetAllPackageMetrics() ([]schema.PackageMetricsRecord, error)

	// GetStatus returns status information about the store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}

// SecretStore resolves secrets by identifier.
type SecretStore interface {
	GetSecret(ctx context.Context, id string) (string, error)
}

// ObjectStore uploads rendered documents.
type ObjectStore interface {
	Put(ctx context.Context, uri string, body io.Reader, contentType string) error
}
