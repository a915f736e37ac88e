package core

import (
	"context"
	"time"

	"github.com/bitergia/grimoirelab-metrics/schema"
)

// AnalyzeRepositories computes the metrics of each repository without
// scheduling or waiting. Repositories are processed in order and the first
// error stops the analysis.
func AnalyzeRepositories(ctx context.Context, assembler *Assembler, repositories []string, from, to time.Time) (*schema.RepositoryDocument, error) {
	doc := &schema.RepositoryDocument{Repositories: make(map[string]schema.MetricsEntry, len(repositories))}
	for _, repository := range repositories {
		m, err := assembler.RepositoryMetrics(ctx, repository, from, to)
		if err != nil {
			return nil, err
		}
		doc.Repositories[repository] = schema.MetricsEntry{Metrics: m}
	}
	return doc, nil
}
