// Package progress tracks indexed/total counts per dataset key and
// collapses them into a single completion flag and status label for the
// UI's header.
package progress

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

type counts struct {
	indexed int
	total   *int
}

// Tracker maintains { dataset key -> { indexed, total? } } and a latching
// completion flag. It is safe for concurrent use from multiple goroutines.
type Tracker struct {
	mu       sync.Mutex
	entries  map[string]*counts
	order    []string
	complete bool
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[string]*counts)}
}

// RecordIndexed sets key's indexed count to max(current, n) — counts only
// ever increase, so callers can report transient values without risking a
// visible regression.
func (t *Tracker) RecordIndexed(key string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.entryLocked(key)
	if n > c.indexed {
		c.indexed = n
	}
	t.recomputeCompleteLocked()
}

// SetTotal sets key's total to max(total, indexed), so a total can never
// regress below what's already been observed.
func (t *Tracker) SetTotal(key string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.entryLocked(key)
	v := total
	if c.indexed > v {
		v = c.indexed
	}
	c.total = &v
	t.recomputeCompleteLocked()
}

// MarkComplete latches completion regardless of recorded totals.
func (t *Tracker) MarkComplete() {
	t.mu.Lock()
	t.complete = true
	t.mu.Unlock()
}

// Complete reports the latched completion flag.
func (t *Tracker) Complete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.complete
}

// Status formats a label per dataset key, in the order keys were first
// seen, using labels[key] as the human-readable name (falling back to the
// key itself). It prints bare indexed counts once complete or when a
// total is unknown, otherwise "indexed/total".
func (t *Tracker) Status(labels map[string]string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	for i, key := range t.order {
		if i > 0 {
			b.WriteString(" • ")
		}
		label := labels[key]
		if label == "" {
			label = key
		}
		fmt.Fprintf(&b, "Indexed %s: %s", label, formatProgress(t.entries[key], t.complete))
	}
	return b.String(), t.complete
}

func (t *Tracker) entryLocked(key string) *counts {
	c, ok := t.entries[key]
	if !ok {
		c = &counts{}
		t.entries[key] = c
		t.order = append(t.order, key)
	}
	return c
}

func (t *Tracker) recomputeCompleteLocked() {
	if t.complete || len(t.entries) == 0 {
		return
	}
	for _, c := range t.entries {
		if c.total == nil || c.indexed < *c.total {
			return
		}
	}
	t.complete = true
}

func formatProgress(c *counts, complete bool) string {
	switch {
	case complete || c.total == nil:
		return strconv.Itoa(c.indexed)
	case *c.total == 0:
		return "0"
	default:
		return fmt.Sprintf("%d/%d", c.indexed, *c.total)
	}
}
