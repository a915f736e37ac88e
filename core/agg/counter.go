package agg

import "slices"

// Entry is a key and its count in a Counter.
type Entry struct {
	Key   string
	Count int
}

// Counter is a multiset that remembers the order in which keys were first seen.
type Counter struct {
	index   map[string]int
	entries []Entry
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{index: make(map[string]int)}
}

// Add increments the count of key by n.
func (c *Counter) Add(key string, n int) {
	if i, ok := c.index[key]; ok {
		c.entries[i].Count += n
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, Entry{Key: key, Count: n})
}

// Get returns the count of key, or zero when it was never added.
func (c *Counter) Get(key string) int {
	if i, ok := c.index[key]; ok {
		return c.entries[i].Count
	}
	return 0
}

// Len returns the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.entries)
}

// Total returns the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for _, e := range c.entries {
		total += e.Count
	}
	return total
}

// MostCommon returns all entries by descending count. Entries with equal
// counts keep the order in which their keys were first seen.
func (c *Counter) MostCommon() []Entry {
	out := slices.Clone(c.entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return b.Count - a.Count
	})
	return out
}
