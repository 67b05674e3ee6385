package fuzzy

import (
	"container/heap"
	"sort"
)

type rankedMatch struct {
	index int
	score uint16
}

// better reports whether a outranks b: a higher score wins outright; on a
// tie the lower index wins (first occurrence prevails).
func better(a, b rankedMatch) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.index < b.index
}

// scoreHeap is a bounded min-heap ordered so its root is always the
// current *worst* kept match — the one a better candidate should evict.
type scoreHeap []rankedMatch

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return better(h[j], h[i]) } // root = worst
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x interface{}) { *h = append(*h, x.(rankedMatch)) }
func (h *scoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ScoreAggregator maintains the highest-scoring matches seen so far for one
// query, bounded to MaxRenderedResults, and emits them as MatchBatches.
type ScoreAggregator struct {
	heap    scoreHeap
	scratch []rankedMatch
	dirty   bool
	sentAny bool
}

// NewScoreAggregator returns an empty aggregator.
func NewScoreAggregator() *ScoreAggregator {
	return &ScoreAggregator{}
}

// Push records a scored candidate. Callers must drop score == 0 candidates
// before calling Push — a zero score means "no match".
func (a *ScoreAggregator) Push(index int, score uint16) {
	entry := rankedMatch{index: index, score: score}
	if len(a.heap) < MaxRenderedResults {
		heap.Push(&a.heap, entry)
		a.dirty = true
		return
	}
	if better(entry, a.heap[0]) {
		a.heap[0] = entry
		heap.Fix(&a.heap, 0)
		a.dirty = true
	}
}

// Len returns the number of matches currently retained.
func (a *ScoreAggregator) Len() int { return len(a.heap) }

// FlushPartial emits a non-final batch if anything new was inserted since
// the last emit, or if nothing has ever been sent (so the consumer always
// sees at least one batch).
func (a *ScoreAggregator) FlushPartial() (MatchBatch, bool) {
	if !a.dirty && a.sentAny {
		return MatchBatch{}, false
	}
	return a.emit(), true
}

// Finish emits the final batch for this query; the caller sends it with the
// envelope's Complete flag set.
func (a *ScoreAggregator) Finish() MatchBatch {
	return a.emit()
}

// FinishWithCompletion emits the batch for a pass boundary; the returned
// batch is identical regardless of completion, since completion lives on
// the envelope, not the payload. Kept distinct from Finish so call sites in
// the two-pass prefilter flow read as "this pass's last emit", whether or
// not it's the stream's last emit.
func (a *ScoreAggregator) FinishWithCompletion() MatchBatch {
	return a.emit()
}

func (a *ScoreAggregator) emit() MatchBatch {
	a.scratch = a.scratch[:0]
	a.scratch = append(a.scratch, a.heap...)
	sort.Slice(a.scratch, func(i, j int) bool {
		if a.scratch[i].score != a.scratch[j].score {
			return a.scratch[i].score > a.scratch[j].score
		}
		return a.scratch[i].index < a.scratch[j].index
	})

	indices := make([]int, len(a.scratch))
	scores := make([]uint16, len(a.scratch))
	for i, e := range a.scratch {
		indices[i] = e.index
		scores[i] = e.score
	}

	a.dirty = false
	a.sentAny = true
	return MatchBatch{Indices: indices, Scores: scores}
}
