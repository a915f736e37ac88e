//go:build database

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitergia/grimoirelab-metrics/core"
	"github.com/bitergia/grimoirelab-metrics/core/agg"
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/internal/eventfile"
	"github.com/bitergia/grimoirelab-metrics/internal/grimoirelab"
	metricsearch "github.com/bitergia/grimoirelab-metrics/internal/opensearch"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	eventsIndex = "events"
	projectURI  = "https://github.com/example/project"
)

// eventsMapping mirrors the fields of the GrimoireLab events index that are queried.
const eventsMapping = `{
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "type": {"type": "keyword"},
      "source": {"type": "keyword"},
      "time": {"type": "date", "format": "strict_date_optional_time||epoch_second"}
    }
  }
}`

// startOpenSearch starts a single node cluster without the security plugin
// and returns its URL.
func startOpenSearch(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "opensearchproject/opensearch:2.19.1",
		ExposedPorts: []string{"9200/tcp"},
		Env: map[string]string{
			"discovery.type":              "single-node",
			"DISABLE_SECURITY_PLUGIN":     "true",
			"DISABLE_INSTALL_DEMO_CONFIG": "true",
			"OPENSEARCH_JAVA_OPTS":        "-Xms512m -Xmx512m",
		},
		WaitingFor: wait.ForHTTP("/_cluster/health").
			WithPort("9200/tcp").
			WithStartupTimeout(120 * time.Second),
	}
	osC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = osC.Terminate(ctx) })

	host, err := osC.Host(ctx)
	require.NoError(t, err)
	port, err := osC.MappedPort(ctx, "9200")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// loadFixture reads the events fixture shared with the unit tests.
func loadFixture(t *testing.T) []schema.Event {
	t.Helper()
	events, err := eventfile.Load(filepath.Join("..", "internal", "eventfile", "testdata", "events.json"))
	require.NoError(t, err)
	require.NotEmpty(t, events)
	return events
}

// indexEvents creates the events index and stores every event.
func indexEvents(t *testing.T, url string, events []schema.Event) {
	t.Helper()
	ctx := context.Background()

	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{Addresses: []string{url}},
	})
	require.NoError(t, err)

	_, err = client.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: eventsIndex,
		Body:  strings.NewReader(eventsMapping),
	})
	require.NoError(t, err)

	for i, ev := range events {
		body, err := json.Marshal(ev)
		require.NoError(t, err)
		_, err = client.Index(ctx, opensearchapi.IndexReq{
			Index:      eventsIndex,
			DocumentID: fmt.Sprintf("%d-%s", i, ev.ID),
			Body:       bytes.NewReader(body),
			Params:     opensearchapi.IndexParams{Refresh: "true"},
		})
		require.NoError(t, err)
	}
}

// fakeGrimoireLab accepts every repository and reports it as freshly fetched.
func fakeGrimoireLab(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/datasources/add_repository", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{}`)
	})
	mux.HandleFunc("/datasources/repositories/", func(w http.ResponseWriter, _ *http.Request) {
		lastRun := time.Now().UTC().Format(time.RFC3339)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"results": [{"task": {"status": "completed", "last_run": %q}}]}`, lastRun)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeSBOM(t *testing.T) string {
	t.Helper()
	doc := `{
  "spdxVersion": "SPDX-2.3",
  "dataLicense": "CC0-1.0",
  "SPDXID": "SPDXRef-DOCUMENT",
  "name": "integration",
  "documentNamespace": "https://example.com/spdx/integration",
  "creationInfo": {"created": "2026-01-01T00:00:00Z", "creators": ["Tool: integration"]},
  "packages": [
    {"SPDXID": "SPDXRef-project", "name": "project", "downloadLocation": "git+https://github.com/example/project.git", "filesAnalyzed": false},
    {"SPDXID": "SPDXRef-tarball", "name": "tarball", "downloadLocation": "NOASSERTION", "filesAnalyzed": false}
  ]
}`
	path := filepath.Join(t.TempDir(), "sbom.spdx.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

// TestOpenSearchEventSource checks that metrics computed from the index match
// the offline analysis of the same events, then runs the whole pipeline.
func TestOpenSearchEventSource(t *testing.T) {
	ctx := context.Background()
	url := startOpenSearch(t)
	events := loadFixture(t)
	indexEvents(t, url, events)

	source, err := metricsearch.NewSource(metricsearch.Options{
		URL:      url,
		Index:    eventsIndex,
		PageSize: 2, // force scrolling
		Logger:   contract.DiscardLogger(),
	})
	require.NoError(t, err)

	classifier := agg.NewClassifier(nil, nil)
	online, err := core.NewAssembler(source, classifier).RepositoryMetrics(ctx, projectURI, time.Time{}, time.Time{})
	require.NoError(t, err)

	offline, err := core.NewAssembler(eventfile.NewSource(events), classifier).RepositoryMetrics(ctx, projectURI, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, offline, online)

	count, err := core.CountCommits(ctx, source, projectURI, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, online.TotalCommits, count)

	t.Run("pipeline", func(t *testing.T) {
		srv := fakeGrimoireLab(t)
		client := grimoirelab.NewClient(srv.URL, "", "")
		require.NoError(t, client.Connect(ctx))

		cfg := &contract.Config{
			SBOMFile:          writeSBOM(t),
			GrimoireLabURL:    srv.URL,
			RepositoryTimeout: time.Minute,
			PollInterval:      time.Second,
			Lookback:          contract.DefaultLookback,
			Workers:           2,
		}
		pipeline := &core.Pipeline{Tasks: client, Source: source, Log: contract.DiscardLogger()}

		doc, err := pipeline.Run(ctx, cfg)
		require.NoError(t, err)
		require.Len(t, doc.Packages, 2)
		assert.Equal(t, projectURI, doc.Packages["SPDXRef-project"].Repository)
		assert.Equal(t, online, doc.Packages["SPDXRef-project"].Metrics)
		assert.Nil(t, doc.Packages["SPDXRef-tarball"].Metrics)
	})
}
