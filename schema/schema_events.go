package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Event is one record of the events index. Only the fields the analyzer needs
// are decoded; anything else in the document is ignored.
type Event struct {
	ID     string     `json:"id,omitempty"`
	Type   string     `json:"type"`
	Source string     `json:"source,omitempty"`
	Time   EventTime  `json:"time,omitzero"`
	Data   CommitData `json:"data"`
}

// CommitData is the payload of a commit event.
type CommitData struct {
	Author  string      `json:"Author"`
	Message string      `json:"message"`
	Files   []FileEntry `json:"files,omitempty"`
}

// FileEntry is one file touched by a commit with its numstat counts.
type FileEntry struct {
	File    string    `json:"file"`
	Added   LineCount `json:"added"`
	Removed LineCount `json:"removed"`
}

// LineCount is a numstat value. Git reports "-" for binary files, so the
// value is only usable when Valid is true.
type LineCount struct {
	N     int
	Valid bool
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else decodes
// into an invalid count instead of failing the whole event.
func (c *LineCount) UnmarshalJSON(b []byte) error {
	*c = LineCount{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
		if n, err := strconv.Atoi(raw); err == nil {
			*c = LineCount{N: n, Valid: true}
		}
		return nil
	}

	if n, err := strconv.Atoi(raw); err == nil {
		*c = LineCount{N: n, Valid: true}
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		*c = LineCount{N: int(f), Valid: true}
	}
	return nil
}

// MarshalJSON writes valid counts as strings, the way git numstat data is indexed.
func (c LineCount) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte(`"-"`), nil
	}
	return json.Marshal(strconv.Itoa(c.N))
}

// IsCommit reports whether the event is a git commit.
func (e Event) IsCommit() bool {
	return e.Type == CommitEventType
}

// EventTime is the time an event happened. The events index stores it as
// epoch seconds, exports may carry an RFC 3339 string instead.
type EventTime struct {
	time.Time
}

// UnmarshalJSON accepts epoch seconds (integer or fractional) and RFC 3339
// strings. Anything else decodes into the zero time instead of failing the
// whole event, so the event only matches an open date range.
func (t *EventTime) UnmarshalJSON(b []byte) error {
	*t = EventTime{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s)); err == nil {
			t.Time = parsed.UTC()
		}
		return nil
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	sec, frac := math.Modf(f)
	t.Time = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	return nil
}

// MarshalJSON writes epoch seconds.
func (t EventTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}

// Within reports whether the time is inside [from, to). Zero bounds are open.
// A missing time is only within a fully open range.
func (t EventTime) Within(from, to time.Time) bool {
	if t.IsZero() {
		return from.IsZero() && to.IsZero()
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
