package fswalk

import (
	"context"
	"log"
	"time"

	"github.com/screenager/frz/internal/cache"
	"github.com/screenager/frz/internal/row"
)

// Index starts an indexing session for root: it replays a cached snapshot
// (if one resolves) for an immediate first paint, waits out that
// snapshot's reindex delay, then runs a live walk and mirrors every row to
// a fresh cache snapshot. It returns a channel of Updates the caller drains
// until it closes, which happens once the live walk (and its cache write)
// has finished, or earlier if ctx is cancelled.
func Index(ctx context.Context, root, contextLabel, cacheDir string, opts Options) <-chan row.Update {
	updates := make(chan row.Update, 8)
	key := cache.Resolve(cacheDir, root, opts)

	go func() {
		defer close(updates)

		reindexDelay, shouldReset, previewCount, previewComplete := hydrateFromCache(ctx, updates, key, contextLabel)
		if previewComplete {
			// The preview already had every row the full snapshot would;
			// nothing more to replay before the live walk.
		} else if delay := hydrateFromFull(ctx, updates, key, contextLabel, previewCount); delay > reindexDelay {
			reindexDelay = delay
		}

		if reindexDelay > 0 {
			select {
			case <-time.After(reindexDelay):
			case <-ctx.Done():
				return
			}
		}

		runLiveWalk(ctx, updates, root, contextLabel, key, opts, shouldReset)
	}()

	return updates
}

// hydrateFromCache replays the preview snapshot, if one resolves, as a
// single reset Update. It reports the reindex delay implied by the
// preview's age, whether a live reindex should reset prior rows, the
// number of rows the preview covered, and whether the preview was already
// the complete dataset.
func hydrateFromCache(ctx context.Context, updates chan<- row.Update, key cache.Key, contextLabel string) (delay time.Duration, shouldReset bool, previewCount int, previewComplete bool) {
	preview, ok := key.LoadPreview()
	if !ok {
		return 0, false, 0, false
	}
	shouldReset = true
	delay = preview.ReindexDelay()
	previewComplete = preview.Complete
	previewCount = len(preview.Data.Files)

	if preview.Data.ContextLabel == "" {
		preview.Data.ContextLabel = contextLabel
	}
	if previewCount == 0 {
		return delay, shouldReset, previewCount, previewComplete
	}

	data := preview.Data
	send(ctx, updates, row.Update{
		Reset:      true,
		CachedData: &data,
		Progress:   row.Progress{Indexed: previewCount, Total: optionalTotal(previewComplete, previewCount), Complete: previewComplete},
	})
	return delay, shouldReset, previewCount, previewComplete
}

// hydrateFromFull streams the rows of the full snapshot beyond what the
// preview already covered, as a single non-reset Update, and returns the
// reindex delay implied by the full snapshot's age.
func hydrateFromFull(ctx context.Context, updates chan<- row.Update, key cache.Key, contextLabel string, previewCount int) time.Duration {
	full, ok := key.Load()
	if !ok {
		return 0
	}
	if full.Data.ContextLabel == "" {
		full.Data.ContextLabel = contextLabel
	}

	total := len(full.Data.Files)
	start := min(previewCount, total)
	if beyond := full.Data.Files[start:]; len(beyond) > 0 {
		send(ctx, updates, row.Update{
			Files:    beyond,
			Progress: row.Progress{Indexed: total, Total: &total, Complete: full.Complete},
		})
	}
	return full.ReindexDelay()
}

func runLiveWalk(ctx context.Context, updates chan<- row.Update, root, contextLabel string, key cache.Key, opts Options, shouldReset bool) {
	writer := cache.NewWriter(key, contextLabel)
	batcher := NewBatcher(shouldReset, writer)

	rows := make(chan row.FileRow, 256)
	go func() {
		_ = Walk(ctx, root, opts, func(f row.FileRow) {
			select {
			case rows <- f:
			case <-ctx.Done():
			}
		})
		close(rows)
	}()

	for f := range rows {
		batcher.Record(f)
		if batcher.ShouldFlush() {
			if !send(ctx, updates, batcher.Flush(false)) {
				return
			}
		}
	}

	final, err := batcher.Finalize()
	if err != nil {
		log.Printf("frz: cache write for %s failed: %v", root, err)
	}
	send(ctx, updates, final)
}

func send(ctx context.Context, ch chan<- row.Update, u row.Update) bool {
	select {
	case ch <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func optionalTotal(complete bool, v int) *int {
	if !complete {
		return nil
	}
	return &v
}
