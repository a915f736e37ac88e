// Package opensearch reads commit events from an OpenSearch events index.
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

// Defaults of the scroll scan.
const (
	DefaultPageSize   = 1000
	DefaultScrollTTL  = 5 * time.Minute
	DefaultMaxRetries = 3
)

// Source is an EventSource backed by an OpenSearch index.
type Source struct {
	client    *opensearchapi.Client
	index     string
	pageSize  int
	scrollTTL time.Duration
	log       *contract.Logger
}

var _ contract.EventSource = &Source{} // Compile-time check

// Options configure the connection to OpenSearch.
type Options struct {
	URL         string
	Index       string
	VerifyCerts bool
	PageSize    int           // 0 = DefaultPageSize
	ScrollTTL   time.Duration // 0 = DefaultScrollTTL
	Logger      *contract.Logger
}

// NewSource connects to OpenSearch. Requests are gzip compressed and retried
// on timeouts.
func NewSource(opts Options) (*Source, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.VerifyCerts {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --verify-certs=false
	}

	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses:            []string{opts.URL},
			Transport:            transport,
			MaxRetries:           DefaultMaxRetries,
			EnableRetryOnTimeout: true,
			CompressRequestBody:  true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating OpenSearch client for %s: %w", opts.URL, err)
	}
	return newSource(client, opts), nil
}

func newSource(client *opensearchapi.Client, opts Options) *Source {
	s := &Source{
		client:    client,
		index:     opts.Index,
		pageSize:  opts.PageSize,
		scrollTTL: opts.ScrollTTL,
		log:       opts.Logger,
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	if s.scrollTTL <= 0 {
		s.scrollTTL = DefaultScrollTTL
	}
	return s
}

// Events scans every commit event of a repository with the scroll API.
func (s *Source) Events(ctx context.Context, q contract.EventQuery) iter.Seq2[schema.Event, error] {
	return func(yield func(schema.Event, error) bool) {
		body, err := json.Marshal(BuildQuery(q, s.pageSize))
		if err != nil {
			yield(schema.Event{}, fmt.Errorf("encoding query: %w", err))
			return
		}

		resp, err := s.client.Search(ctx, &opensearchapi.SearchReq{
			Indices: []string{s.index},
			Body:    bytes.NewReader(body),
			Params:  opensearchapi.SearchParams{Scroll: s.scrollTTL},
		})
		if err != nil {
			yield(schema.Event{}, fmt.Errorf("searching events of %s: %w", q.Repository, err))
			return
		}

		hits := resp.Hits.Hits
		scrollID := resp.ScrollID
		defer func() { s.clearScroll(scrollID) }()

		for len(hits) > 0 {
			for _, hit := range hits {
				var ev schema.Event
				if err := json.Unmarshal(hit.Source, &ev); err != nil {
					yield(schema.Event{}, fmt.Errorf("decoding event %s: %w", hit.ID, err))
					return
				}
				if !yield(ev, nil) {
					return
				}
			}

			if scrollID == nil || *scrollID == "" {
				return
			}
			page, err := s.client.Scroll.Get(ctx, opensearchapi.ScrollGetReq{
				ScrollID: *scrollID,
				Params:   opensearchapi.ScrollGetParams{Scroll: s.scrollTTL},
			})
			if err != nil {
				yield(schema.Event{}, fmt.Errorf("scrolling events of %s: %w", q.Repository, err))
				return
			}
			hits = page.Hits.Hits
			if page.ScrollID != nil {
				scrollID = page.ScrollID
			}
		}
	}
}

// clearScroll releases the server side scroll context.
func (s *Source) clearScroll(scrollID *string) {
	if scrollID == nil || *scrollID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.client.Scroll.Delete(ctx, opensearchapi.ScrollDeleteReq{ScrollIDs: []string{*scrollID}}); err != nil {
		s.log.Debugf("Could not clear scroll: %v", err)
	}
}

// BuildQuery returns the search body selecting the commit events of a
// repository: a match on source, a term on type and an optional time range
// with inclusive lower and exclusive upper bounds.
func BuildQuery(q contract.EventQuery, size int) map[string]any {
	filters := []any{
		map[string]any{"match": map[string]any{"source": q.Repository}},
		map[string]any{"term": map[string]any{"type": schema.CommitEventType}},
	}

	dateRange := map[string]any{}
	if !q.From.IsZero() {
		dateRange["gte"] = q.From.UTC().Format(time.RFC3339)
	}
	if !q.To.IsZero() {
		dateRange["lt"] = q.To.UTC().Format(time.RFC3339)
	}
	if len(dateRange) > 0 {
		filters = append(filters, map[string]any{"range": map[string]any{"time": dateRange}})
	}

	body := map[string]any{
		"size":  size,
		"sort":  []any{"_doc"},
		"query": map[string]any{"bool": map[string]any{"filter": filters}},
	}
	if len(q.Fields) > 0 {
		body["_source"] = q.Fields
	}
	return body
}
