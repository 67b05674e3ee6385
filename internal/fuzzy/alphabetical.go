package fuzzy

import (
	"container/heap"
	"sort"
)

type alphaEntry struct {
	index int
	key   string
}

// alphaLess mirrors the Rust AlphabeticalEntry ordering: ascending key, then
// ascending index on a tie.
func alphaLess(a, b alphaEntry) bool {
	if a.key != b.key {
		return a.key < b.key
	}
	return a.index < b.index
}

// alphaHeap is a bounded max-heap ordered so its root is the current
// lexicographically *largest* kept entry — the one a smaller candidate
// should evict.
type alphaHeap []alphaEntry

func (h alphaHeap) Len() int            { return len(h) }
func (h alphaHeap) Less(i, j int) bool  { return alphaLess(h[j], h[i]) } // root = largest
func (h alphaHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *alphaHeap) Push(x interface{}) { *h = append(*h, x.(alphaEntry)) }
func (h *alphaHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// AlphabeticalCollector collects the lexicographically smallest entries for
// an empty query, bounded to min(MaxRenderedResults, total).
type AlphabeticalCollector struct {
	limit   int
	heap    alphaHeap
	scratch []alphaEntry
	dirty   bool
}

// NewAlphabeticalCollector returns a collector that emits at most
// min(MaxRenderedResults, total) entries.
func NewAlphabeticalCollector(total int) *AlphabeticalCollector {
	limit := MaxRenderedResults
	if total < limit {
		limit = total
	}
	return &AlphabeticalCollector{limit: limit}
}

// Insert records a candidate index with its sort key when the collector
// still has room, or when it outranks the current worst kept entry.
func (c *AlphabeticalCollector) Insert(index int, key string) {
	if c.limit == 0 {
		return
	}
	entry := alphaEntry{index: index, key: key}
	if len(c.heap) < c.limit {
		heap.Push(&c.heap, entry)
		c.dirty = true
		return
	}
	if alphaLess(entry, c.heap[0]) {
		c.heap[0] = entry
		heap.Fix(&c.heap, 0)
		c.dirty = true
	}
}

// FlushPartial emits a non-final batch if new entries were inserted since
// the last emit.
func (c *AlphabeticalCollector) FlushPartial() (MatchBatch, bool) {
	if !c.dirty {
		return MatchBatch{}, false
	}
	return c.emit(), true
}

// Finish emits the final alphabetical batch, sorted ascending by key.
func (c *AlphabeticalCollector) Finish() MatchBatch {
	if c.limit == 0 {
		c.dirty = false
		return MatchBatch{}
	}
	return c.emit()
}

func (c *AlphabeticalCollector) emit() MatchBatch {
	c.scratch = c.scratch[:0]
	c.scratch = append(c.scratch, c.heap...)
	sort.Slice(c.scratch, func(i, j int) bool { return alphaLess(c.scratch[i], c.scratch[j]) })

	indices := make([]int, len(c.scratch))
	scores := make([]uint16, len(c.scratch))
	for i, e := range c.scratch {
		indices[i] = e.index
	}

	c.dirty = false
	return MatchBatch{Indices: indices, Scores: scores}
}
