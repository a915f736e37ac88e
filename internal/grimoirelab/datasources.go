package grimoirelab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bitergia/grimoirelab-metrics/schema"
)

// API paths of the datasources application.
const (
	addRepositoryPath = "datasources/add_repository"
	repositoriesPath  = "datasources/repositories/"
)

// ScheduleRepository asks GrimoireLab to fetch a repository. A repository that
// already exists is not an error.
func (c *Client) ScheduleRepository(ctx context.Context, uri, datasource, category string) error {
	payload := map[string]string{
		"uri":                 uri,
		"datasource_type":     datasource,
		"datasource_category": category,
	}
	err := c.Post(ctx, addRepositoryPath, payload, nil)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusMethodNotAllowed &&
		strings.Contains(apiErr.Message(), "already exists") {
		return nil
	}
	return err
}

type repositoriesPage struct {
	Results []struct {
		Task *taskPayload `json:"task"`
	} `json:"results"`
}

type taskPayload struct {
	Status  string  `json:"status"`
	LastRun *string `json:"last_run"`
}

// RepositoryTask returns the ingestion task of a repository, or nil when
// GrimoireLab has no record of it.
func (c *Client) RepositoryTask(ctx context.Context, uri string) (*schema.Task, error) {
	var page repositoriesPage
	if err := c.Get(ctx, repositoriesPath, url.Values{"uri": {uri}}, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 || page.Results[0].Task == nil {
		return nil, nil
	}

	raw := page.Results[0].Task
	task := &schema.Task{Status: schema.TaskStatus(strings.ToLower(raw.Status))}
	if raw.LastRun != nil && *raw.LastRun != "" {
		lastRun, err := ParseTimestamp(*raw.LastRun)
		if err != nil {
			return nil, fmt.Errorf("task of %s: %w", uri, err)
		}
		task.LastRun = &lastRun
	}
	return task, nil
}

// timestampLayouts are tried in order. Timestamps without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses the ISO 8601 timestamps returned by the API.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
