// Package core has the orchestration of a metrics run: scheduling repositories,
// waiting for them to be ingested and assembling their metrics.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bitergia/grimoirelab-metrics/core/agg"
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
)

// Assembler drives the Analyzer over the events of one repository.
type Assembler struct {
	source     contract.EventSource
	classifier agg.Classifier
}

// NewAssembler creates an Assembler reading from source and classifying
// files with classifier.
func NewAssembler(source contract.EventSource, classifier agg.Classifier) *Assembler {
	return &Assembler{source: source, classifier: classifier}
}

// RepositoryMetrics computes the metrics of a repository for commits in
// [from, to). Zero bounds leave the range open.
func (a *Assembler) RepositoryMetrics(ctx context.Context, repository string, from, to time.Time) (*schema.RepositoryMetrics, error) {
	analyzer := agg.NewAnalyzer(a.classifier)

	q := contract.EventQuery{Repository: repository, From: from, To: to, Fields: contract.CommitFields}
	for ev, err := range a.source.Events(ctx, q) {
		if err != nil {
			return nil, fmt.Errorf("reading events of %s: %w", repository, err)
		}
		analyzer.Add(ev)
	}

	metrics := analyzer.Metrics(contract.WindowDays(from, to))
	return &metrics, nil
}

// CountCommits counts the commits of a repository in [from, to) fetching
// only the event type.
func CountCommits(ctx context.Context, source contract.EventSource, repository string, from, to time.Time) (int, error) {
	q := contract.EventQuery{Repository: repository, From: from, To: to, Fields: contract.TypeOnlyFields}

	count := 0
	for ev, err := range source.Events(ctx, q) {
		if err != nil {
			return 0, fmt.Errorf("counting commits of %s: %w", repository, err)
		}
		if ev.IsCommit() {
			count++
		}
	}
	return count, nil
}
