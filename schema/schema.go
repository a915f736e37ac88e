// Package schema has the data models shared by all parts of grimoirelab-metrics.
package schema

import "time"

// Package is a single SBOM package and the git repository resolved from its
// download location. Repository is empty when no git URI could be found.
type Package struct {
	SPDXID     string
	Name       string
	Repository string
}

// Task is the latest ingestion task GrimoireLab knows about for a repository.
type Task struct {
	Status  TaskStatus `json:"status"`
	LastRun *time.Time `json:"last_run"`
}

// RepositoryResult is the outcome of waiting for and measuring one repository.
// Metrics is nil when the repository timed out.
type RepositoryResult struct {
	Repository string
	Metrics    *RepositoryMetrics
}
