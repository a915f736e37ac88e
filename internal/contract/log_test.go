package contract

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 15, 9, 30, 5, 0, time.UTC)
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, false, false).WithClock(fixedClock)

	log.Infof("Found %d git repositories", 3)
	log.Warnf("Timeout waiting for repository %s to be ready", "https://github.com/chaoss/grimoirelab")
	log.Errorf("Error scheduling task: %v", "boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"2026-10-15 09:30:05 - INFO - Found 3 git repositories",
		"2026-10-15 09:30:05 - WARNING - Timeout waiting for repository https://github.com/chaoss/grimoirelab to be ready",
		"2026-10-15 09:30:05 - ERROR - Error scheduling task: boom",
	}, lines)
}

func TestLoggerVerbose(t *testing.T) {
	var quiet, verbose bytes.Buffer

	NewLogger(&quiet, false, false).Debugf("Refreshing token...")
	NewLogger(&verbose, true, false).Debugf("Refreshing token...")

	assert.Empty(t, quiet.String())
	assert.Contains(t, verbose.String(), " - DEBUG - Refreshing token...")
}

func TestLoggerEnabled(t *testing.T) {
	log := NewLogger(&bytes.Buffer{}, false, false)
	assert.False(t, log.Enabled(DebugLevel))
	assert.True(t, log.Enabled(InfoLevel))
	assert.True(t, log.Enabled(ErrorLevel))
}

func TestLoggerNilAndDiscard(t *testing.T) {
	var log *Logger
	assert.NotPanics(t, func() { log.Infof("ignored") })
	assert.NotPanics(t, func() { DiscardLogger().Warnf("ignored") })
}

func TestLoggerConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, false, false)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Infof("line %d", i)
		}()
	}
	wg.Wait()

	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 20)
}
