package fswalk

import (
	"time"

	"github.com/screenager/frz/internal/cache"
	"github.com/screenager/frz/internal/row"
)

const dispatchInterval = 120 * time.Millisecond

// batchSizeFor returns the dispatch threshold for an index that has
// rowsSoFar rows already accumulated: small indexes flush often for a
// responsive first paint, large ones flush rarely to keep overhead down.
func batchSizeFor(rowsSoFar int) int {
	switch {
	case rowsSoFar < 1024:
		return 32
	case rowsSoFar < 16384:
		return 256
	default:
		return 1024
	}
}

// Batcher accumulates FileRows from the walker and decides when to dispatch
// them as an Update, mirroring the indexer's adaptive batch sizing. It also
// mirrors every recorded row to an optional cache.Writer so the on-disk
// snapshot and the live update stream stay in lockstep.
type Batcher struct {
	reset        bool
	pending      []row.FileRow
	total        int
	writer       *cache.Writer
	lastDispatch time.Time
}

// NewBatcher returns a Batcher that tags its first dispatched Update with
// Reset if reset is true (a live reindex replacing a cached preview), and
// mirrors every row to writer (nil disables cache writing).
func NewBatcher(reset bool, writer *cache.Writer) *Batcher {
	return &Batcher{reset: reset, writer: writer, lastDispatch: time.Now()}
}

// Record appends f to the pending batch.
func (b *Batcher) Record(f row.FileRow) {
	b.pending = append(b.pending, f)
	b.total++
	if b.writer != nil {
		b.writer.Record(f)
	}
}

// ShouldFlush reports whether the pending batch has crossed its size
// threshold or enough time has elapsed since the last dispatch.
func (b *Batcher) ShouldFlush() bool {
	if len(b.pending) == 0 {
		return false
	}
	if len(b.pending) >= batchSizeFor(b.total-len(b.pending)) {
		return true
	}
	return time.Since(b.lastDispatch) >= dispatchInterval
}

// Flush returns an Update for the currently pending rows and clears them.
// Reset is set only on the first call after construction with reset=true.
func (b *Batcher) Flush(complete bool) row.Update {
	files := b.pending
	b.pending = nil
	reset := b.reset
	b.reset = false
	b.lastDispatch = time.Now()
	return row.Update{
		Files:    files,
		Progress: row.Progress{Indexed: b.total, Complete: complete},
		Reset:    reset,
	}
}

// Finalize flushes any remaining rows as the terminal complete update and
// finalizes the cache writer, if any. A non-nil error is the cache write
// failure; the Update itself is always valid and should still be sent —
// the live session's in-memory data never depends on the disk write.
func (b *Batcher) Finalize() (row.Update, error) {
	update := b.Flush(true)
	total := b.total
	update.Progress.Total = &total
	if b.writer == nil {
		return update, nil
	}
	return update, b.writer.Finish()
}
