package core

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/events.json
var eventsJSON []byte

const (
	repoA = "https://github.com/chaoss/grimoirelab"
	repoB = "https://github.com/chaoss/grimoirelab-perceval"
)

func loadEvents(t *testing.T) []schema.Event {
	t.Helper()
	var events []schema.Event
	require.NoError(t, json.Unmarshal(eventsJSON, &events))
	return events
}

// fakeClock is a manual clock whose Sleep advances time instantly.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of the poller workers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(verbose bool) (*contract.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return contract.NewLogger(buf, verbose, false), buf
}

func ptrTime(t time.Time) *time.Time { return &t }
