// Package agg aggregates git commit events into project health metrics.
package agg

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bitergia/grimoirelab-metrics/schema"
)

// Share thresholds used to split contributors into categories.
const (
	coreShare    = 0.8
	regularShare = 0.95
)

// Analyzer accumulates the statistics of one repository's commit events.
// It is not safe for concurrent use; create one per repository.
type Analyzer struct {
	classifier Classifier

	totalCommits int
	contributors *Counter
	companies    *Counter
	fileTypes    *Counter
	addedLines   int
	removedLines int
	messageSizes []int
}

// NewAnalyzer creates an empty analyzer that classifies files with c.
func NewAnalyzer(c Classifier) *Analyzer {
	if c.code == nil || c.binary == nil {
		c = NewClassifier(c.code, c.binary)
	}
	return &Analyzer{
		classifier:   c,
		contributors: NewCounter(),
		companies:    NewCounter(),
		fileTypes:    NewCounter(),
	}
}

// Process folds events into the accumulated state. Calls are cumulative.
func (a *Analyzer) Process(events []schema.Event) {
	for _, ev := range events {
		a.Add(ev)
	}
}

// Add folds a single event. Events that are not commits are ignored.
func (a *Analyzer) Add(ev schema.Event) {
	if !ev.IsCommit() {
		return
	}

	a.totalCommits++
	a.contributors.Add(ev.Data.Author, 1)
	a.updateCompanies(ev.Data.Author)
	a.updateFiles(ev.Data.Files)
	a.messageSizes = append(a.messageSizes, utf8.RuneCountInString(ev.Data.Message))
}

// updateCompanies counts the email domain of author, minus its closing bracket.
func (a *Analyzer) updateCompanies(author string) {
	company, ok := companyOf(author)
	if !ok {
		return
	}
	a.companies.Add(company, 1)
}

// companyOf takes the text between the first and second "@" and drops its
// last character, which is expected to be ">".
func companyOf(author string) (string, bool) {
	parts := strings.Split(author, "@")
	if len(parts) < 2 {
		return "", false
	}
	domain := parts[1]
	if domain == "" {
		return "", true
	}
	_, size := utf8.DecodeLastRuneInString(domain)
	return domain[:len(domain)-size], true
}

func (a *Analyzer) updateFiles(files []schema.FileEntry) {
	for _, f := range files {
		if f.File == "" {
			continue
		}
		a.fileTypes.Add(string(a.classifier.Classify(f.File)), 1)

		if f.Added.Valid {
			a.addedLines += f.Added.N
		}
		if f.Removed.Valid {
			a.removedLines += f.Removed.N
		}
	}
}

// CommitCount returns the number of commits processed.
func (a *Analyzer) CommitCount() int {
	return a.totalCommits
}

// ContributorCount returns the number of distinct authors.
func (a *Analyzer) ContributorCount() int {
	return a.contributors.Len()
}

// PonyFactor returns how many top contributors produce more than half of the commits.
func (a *Analyzer) PonyFactor() int {
	return a.concentration(a.contributors)
}

// ElephantFactor returns how many top companies produce more than half of the commits.
func (a *Analyzer) ElephantFactor() int {
	return a.concentration(a.companies)
}

// concentration walks c by descending count until the running sum is above
// half of all commits. It returns every key when the threshold is never crossed.
func (a *Analyzer) concentration(c *Counter) int {
	if c.Len() == 0 {
		return 0
	}

	partial, factor := 0, 0
	for _, e := range c.MostCommon() {
		partial += e.Count
		factor++
		if 2*partial > a.totalCommits {
			break
		}
	}
	return factor
}

// FileTypes returns the number of changed files per bucket.
func (a *Analyzer) FileTypes() schema.FileTypeCounts {
	return schema.FileTypeCounts{
		Code:   a.fileTypes.Get(string(schema.CodeFile)),
		Binary: a.fileTypes.Get(string(schema.BinaryFile)),
		Other:  a.fileTypes.Get(string(schema.OtherFile)),
	}
}

// CommitSize returns added and removed line totals.
func (a *Analyzer) CommitSize() schema.CommitSize {
	return schema.CommitSize{AddedLines: a.addedLines, RemovedLines: a.removedLines}
}

// MessageSize returns total, mean and median message length.
// The median is the upper middle element for an even number of messages.
func (a *Analyzer) MessageSize() schema.MessageSize {
	var m schema.MessageSize
	n := len(a.messageSizes)
	for _, size := range a.messageSizes {
		m.Total += size
	}
	if n == 0 {
		return m
	}

	sorted := slices.Clone(a.messageSizes)
	slices.Sort(sorted)
	m.Mean = float64(m.Total) / float64(n)
	m.Median = sorted[n/2]
	return m
}

// CommitsWeekMean returns the mean number of commits per week over days.
func (a *Analyzer) CommitsWeekMean(days int) float64 {
	if days <= 0 {
		return 0
	}
	return float64(a.totalCommits) / float64(days) / 7
}

// DeveloperCategories splits contributors by cumulative commit share.
// Contributors within 80% of the commits are core, within 95% are regular and
// the rest are casual. A contributor with more commits than the last core one
// is always core, and one with as many is never casual.
func (a *Analyzer) DeveloperCategories() schema.DeveloperCategories {
	var cats schema.DeveloperCategories
	regularThreshold := int(coreShare * float64(a.totalCommits))
	casualThreshold := int(regularShare * float64(a.totalCommits))

	acc, lastCore := 0, 0
	for _, e := range a.contributors.MostCommon() {
		acc += e.Count
		switch {
		case acc <= regularThreshold || e.Count > lastCore:
			lastCore = e.Count
			cats.Core++
		case acc <= casualThreshold || e.Count == lastCore:
			cats.Regular++
		default:
			cats.Casual++
		}
	}
	return cats
}

// Metrics returns every statistic as a flat record. days is the length of
// the analyzed window used for the weekly mean.
func (a *Analyzer) Metrics(days int) schema.RepositoryMetrics {
	files := a.FileTypes()
	size := a.CommitSize()
	msg := a.MessageSize()
	cats := a.DeveloperCategories()

	return schema.RepositoryMetrics{
		TotalCommits:      a.CommitCount(),
		TotalContributors: a.ContributorCount(),
		PonyFactor:        a.PonyFactor(),
		ElephantFactor:    a.ElephantFactor(),
		CommitsWeekMean:   a.CommitsWeekMean(days),

		FileTypesCode:   files.Code,
		FileTypesBinary: files.Binary,
		FileTypesOther:  files.Other,

		CommitSizeAddedLines:   size.AddedLines,
		CommitSizeRemovedLines: size.RemovedLines,

		MessageSizeTotal:  msg.Total,
		MessageSizeMean:   msg.Mean,
		MessageSizeMedian: msg.Median,

		DeveloperCategoriesCore:    cats.Core,
		DeveloperCategoriesRegular: cats.Regular,
		DeveloperCategoriesCasual:  cats.Casual,
	}
}
