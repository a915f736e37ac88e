// Package eventfile reads exported events and serves them as an in-memory Event Source.
package eventfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
)

// Load reads the events of a file holding either a JSON array of events or
// one event per line.
func Load(path string) ([]schema.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	events, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading events of %s: %w", path, err)
	}
	return events, nil
}

// Decode reads a JSON array of events or newline-delimited events.
func Decode(r io.Reader) ([]schema.Event, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var events []schema.Event
		if err := dec.Decode(&events); err != nil {
			return nil, fmt.Errorf("decoding event array: %w", err)
		}
		return events, nil
	}

	var events []schema.Event
	for {
		var ev schema.Event
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding event %d: %w", len(events)+1, err)
		}
		events = append(events, ev)
	}
}

// peekNonSpace returns the first non-whitespace byte without consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if bytes.IndexByte([]byte(" \t\r\n"), b) >= 0 {
			continue
		}
		return b, br.UnreadByte()
	}
}

// Source is an Event Source over events held in memory.
type Source struct {
	bySource map[string][]schema.Event
	order    []string
}

var _ contract.EventSource = &Source{} // Compile-time check

// NewSource groups the commit events by repository. Other events are dropped.
func NewSource(events []schema.Event) *Source {
	s := &Source{bySource: make(map[string][]schema.Event)}
	for _, ev := range events {
		if !ev.IsCommit() || ev.Source == "" {
			continue
		}
		if _, ok := s.bySource[ev.Source]; !ok {
			s.order = append(s.order, ev.Source)
		}
		s.bySource[ev.Source] = append(s.bySource[ev.Source], ev)
	}
	return s
}

// Repositories returns the repositories with commit events in first-seen order.
func (s *Source) Repositories() []string {
	return append([]string(nil), s.order...)
}

// Events yields the commit events of q.Repository inside the query range.
func (s *Source) Events(ctx context.Context, q contract.EventQuery) iter.Seq2[schema.Event, error] {
	return func(yield func(schema.Event, error) bool) {
		for _, ev := range s.bySource[q.Repository] {
			if err := ctx.Err(); err != nil {
				yield(schema.Event{}, err)
				return
			}
			if !ev.Time.Within(q.From, q.To) {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}
