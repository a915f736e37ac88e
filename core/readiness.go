package core

import (
	"context"
	"fmt"
	"time"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"golang.org/x/sync/errgroup"
)

// MetricsFunc computes the metrics of a repository once it is ready.
type MetricsFunc func(ctx context.Context, repository string) (*schema.RepositoryMetrics, error)

// Poller waits for GrimoireLab to ingest repositories and computes their
// metrics as soon as each one is ready.
type Poller struct {
	Tasks   contract.TaskService
	Metrics MetricsFunc
	Log     *contract.Logger

	Interval time.Duration // sleep between ticks
	Lookback time.Duration // how recent a last run must be
	Timeout  time.Duration // overall deadline
	Workers  int           // concurrent metrics computations per tick

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// PollResult is the outcome of waiting for a set of repositories.
type PollResult struct {
	Metrics  map[string]*schema.RepositoryMetrics
	TimedOut []string
}

// NewPoller creates a Poller with the default interval, lookback and real clock.
func NewPoller(tasks contract.TaskService, metrics MetricsFunc, log *contract.Logger, timeout time.Duration, workers int) *Poller {
	return &Poller{
		Tasks:    tasks,
		Metrics:  metrics,
		Log:      log,
		Interval: contract.DefaultPollInterval,
		Lookback: contract.DefaultLookback,
		Timeout:  timeout,
		Workers:  workers,
		Now:      time.Now,
		Sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsReady reports whether the ingestion task of a repository finished after
// the given time. Failed tasks count as ready so that partial data is still
// measured. Errors are logged and reported as not ready.
func (p *Poller) IsReady(ctx context.Context, repository string, after time.Time) bool {
	task, err := p.Tasks.RepositoryTask(ctx, repository)
	if err != nil {
		p.Log.Warnf("Error checking repository status: %v", err)
		return false
	}
	if task == nil {
		return false
	}
	if task.Status == schema.TaskFailed {
		p.Log.Warnf("Metrics for '%s' might be incomplete", repository)
		return true
	}
	if task.LastRun != nil {
		return task.LastRun.After(after)
	}
	return false
}

// Wait polls until every repository is ready or the timeout elapses. Ready
// repositories are measured in the tick they become ready. Repositories still
// pending at the deadline are returned in TimedOut, in input order. An error
// computing metrics stops the wait.
func (p *Poller) Wait(ctx context.Context, repositories []string) (*PollResult, error) {
	p.Log.Infof("Generating metrics")

	start := p.Now()
	deadline := start.Add(p.Timeout)
	after := start.Add(-p.Lookback)

	result := &PollResult{Metrics: make(map[string]*schema.RepositoryMetrics, len(repositories))}
	pending := append([]string(nil), repositories...)

	for len(pending) > 0 {
		measured, err := p.tick(ctx, pending, after)
		if err != nil {
			return nil, err
		}

		remaining := pending[:0:0]
		for i, repo := range pending {
			if measured[i] != nil {
				result.Metrics[repo] = measured[i]
			} else {
				remaining = append(remaining, repo)
			}
		}
		pending = remaining

		if len(pending) == 0 || !p.Now().Before(deadline) {
			break
		}
		p.Log.Infof("Waiting for %d repositories to be ready", len(pending))
		p.Log.Debugf("Repositories not ready: %v", pending)
		if err := p.Sleep(ctx, p.Interval); err != nil {
			return nil, err
		}
	}

	for _, repo := range pending {
		p.Log.Warnf("Timeout waiting for repository %s to be ready", repo)
	}
	result.TimedOut = pending
	return result, nil
}

// tick checks every pending repository once and measures the ready ones.
// The returned slice is aligned with pending; nil means not ready.
func (p *Poller) tick(ctx context.Context, pending []string, after time.Time) ([]*schema.RepositoryMetrics, error) {
	measured := make([]*schema.RepositoryMetrics, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Workers, 1))
	for i, repo := range pending {
		g.Go(func() error {
			if !p.IsReady(gctx, repo, after) {
				return nil
			}
			metrics, err := p.Metrics(gctx, repo)
			if err != nil {
				return fmt.Errorf("computing metrics of %s: %w", repo, err)
			}
			measured[i] = metrics
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return measured, nil
}
