package core

import (
	"context"
	"errors"
	"time"

	"github.com/bitergia/grimoirelab-metrics/core/agg"
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/internal/sbom"
	"github.com/bitergia/grimoirelab-metrics/schema"
)

// ErrNoRepositories is returned when the SBOM lists no git repository.
var ErrNoRepositories = errors.New("could not find any git repositories to analyze")

// Pipeline computes the metrics document of an SBOM.
type Pipeline struct {
	Tasks   contract.TaskService
	Source  contract.EventSource
	History contract.RunStore // nil disables run history
	Log     *contract.Logger

	// Clock overrides, nil means real time.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run parses the SBOM, schedules its repositories, waits for them to be
// ingested and returns one entry per SBOM package.
func (p *Pipeline) Run(ctx context.Context, cfg *contract.Config) (*schema.MetricsDocument, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	packages, err := sbom.ParsePackages(cfg.SBOMFile, p.Log)
	if err != nil {
		return nil, err
	}

	repositories := sbom.Repositories(packages)
	if len(repositories) == 0 {
		p.Log.Infof("Could not find any git repositories to analyze")
		return nil, ErrNoRepositories
	}
	p.Log.Infof("Found %d git repositories", len(repositories))

	if err := ScheduleRepositories(ctx, p.Tasks, repositories, p.Log); err != nil {
		return nil, err
	}

	assembler := NewAssembler(p.Source, agg.NewClassifier(cfg.CodePattern, cfg.BinaryPattern))
	metricsFn := func(ctx context.Context, repository string) (*schema.RepositoryMetrics, error) {
		return assembler.RepositoryMetrics(ctx, repository, cfg.FromDate, cfg.ToDate)
	}

	poller := NewPoller(p.Tasks, metricsFn, p.Log, cfg.RepositoryTimeout, cfg.Workers)
	if cfg.PollInterval > 0 {
		poller.Interval = cfg.PollInterval
	}
	if cfg.Lookback > 0 {
		poller.Lookback = cfg.Lookback
	}
	poller.Now = now
	if p.Sleep != nil {
		poller.Sleep = p.Sleep
	}

	result, err := poller.Wait(ctx, repositories)
	if err != nil {
		return nil, err
	}

	doc := BuildDocument(packages, result.Metrics)

	if p.History != nil {
		summary := schema.RunSummary{
			TotalPackages:     len(packages),
			TotalRepositories: len(repositories),
			TimedOut:          len(result.TimedOut),
		}
		p.recordRun(cfg, packages, doc, start, now(), summary)
	}
	return doc, nil
}

// BuildDocument maps every package to the metrics of its repository.
// Packages without a repository, or whose repository timed out, get null metrics.
func BuildDocument(packages []schema.Package, metrics map[string]*schema.RepositoryMetrics) *schema.MetricsDocument {
	doc := &schema.MetricsDocument{Packages: make(map[string]schema.MetricsEntry, len(packages))}
	for _, pkg := range packages {
		m, ok := metrics[pkg.Repository]
		if pkg.Repository == "" || !ok || m == nil {
			doc.Packages[pkg.SPDXID] = schema.MetricsEntry{}
			continue
		}
		doc.Packages[pkg.SPDXID] = schema.MetricsEntry{Metrics: m, Repository: pkg.Repository}
	}
	return doc
}

// recordRun stores the run in the history store. Failures are logged and
// never fail the run.
func (p *Pipeline) recordRun(cfg *contract.Config, packages []schema.Package, doc *schema.MetricsDocument, start, end time.Time, summary schema.RunSummary) {
	params := map[string]any{
		"sbom_file":          cfg.SBOMFile,
		"grimoirelab_url":    cfg.GrimoireLabURL,
		"opensearch_url":     cfg.OpenSearchURL,
		"opensearch_index":   cfg.OpenSearchIndex,
		"repository_timeout": cfg.RepositoryTimeout.String(),
		"workers":            cfg.Workers,
	}
	if !cfg.FromDate.IsZero() {
		params["from_date"] = cfg.FromDate.Format(contract.DateLayout)
	}
	if !cfg.ToDate.IsZero() {
		params["to_date"] = cfg.ToDate.Format(contract.DateLayout)
	}

	runID, err := p.History.BeginRun(start, params)
	if err != nil {
		p.Log.Warnf("Run history initialization failed: %v", err)
		return
	}

	for _, pkg := range packages {
		entry := doc.Packages[pkg.SPDXID]
		if err := p.History.RecordPackageMetrics(runID, pkg.SPDXID, pkg.Repository, entry.Metrics); err != nil {
			p.Log.Warnf("Failed to record metrics of %s: %v", pkg.SPDXID, err)
		}
	}

	if err := p.History.EndRun(runID, end, summary); err != nil {
		p.Log.Warnf("Failed to finalize run history: %v", err)
	}
}
