package fuzzy

import (
	"context"
	"strings"

	"github.com/screenager/frz/internal/stream"
)

// Dataset is anything the matcher can fuzzy-search: a positional,
// indexable collection of searchable keys.
type Dataset interface {
	Len() int
	KeyFor(index int) string
}

// passOutcome distinguishes why a scoring pass over a dataset stopped.
type passOutcome int

const (
	passCompleted passOutcome = iota
	passAborted               // superseded by a newer query id
	passHungUp                // the consumer's receiver is gone
)

// StreamDataset performs fuzzy matching of query over dataset, emitting
// MatchBatches to sender as it goes. It returns false only if the consumer
// has hung up; a superseded query returns true having sent nothing further.
func StreamDataset(ctx context.Context, dataset Dataset, query string, scorer Scorer, sender stream.Sender[MatchBatch], latest *stream.LatestID) bool {
	id := sender.ID()
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return StreamAlphabetical(ctx, dataset, sender, latest)
	}

	total := dataset.Len()
	cfg := ConfigForQuery(trimmed, total)

	if !cfg.Prefilter {
		agg := NewScoreAggregator()
		switch scoreChunks(ctx, dataset, trimmed, cfg, scorer, agg, id, latest, sender) {
		case passHungUp:
			return false
		case passAborted:
			return true
		}
		return sendFinal(ctx, sender, agg.Finish())
	}

	agg := NewScoreAggregator()
	switch scoreChunks(ctx, dataset, trimmed, cfg, scorer, agg, id, latest, sender) {
	case passHungUp:
		return false
	case passAborted:
		return true
	}

	if !sender.Send(ctx, agg.FinishWithCompletion(), false) {
		return false
	}

	// Refine without the prefilter's typo bound, on a private snapshot of
	// the dataset's keys so the refinement goroutine doesn't need to touch
	// the live dataset again.
	keys := make([]string, total)
	for i := 0; i < total; i++ {
		keys[i] = dataset.KeyFor(i)
	}
	go refineInBackground(ctx, keys, trimmed, scorer, sender, latest)
	return true
}

func refineInBackground(ctx context.Context, keys []string, query string, scorer Scorer, sender stream.Sender[MatchBatch], latest *stream.LatestID) {
	id := sender.ID()
	if len(keys) == 0 {
		sender.Send(ctx, MatchBatch{}, true)
		return
	}
	cfg := refinedConfig(ConfigForQuery(query, len(keys)))
	agg := NewScoreAggregator()
	ds := stringsDataset(keys)
	outcome := scoreChunks(ctx, ds, query, cfg, scorer, agg, id, latest, sender)
	if outcome == passCompleted && !latest.Superseded(id) {
		sendFinal(ctx, sender, agg.Finish())
	}
}

type stringsDataset []string

func (d stringsDataset) Len() int            { return len(d) }
func (d stringsDataset) KeyFor(i int) string { return d[i] }

// scoreChunks iterates dataset in MatchChunkSize chunks, scoring each row,
// checking cancellation and flushing partial results at every chunk
// boundary.
func scoreChunks(ctx context.Context, dataset Dataset, query string, cfg Config, scorer Scorer, agg *ScoreAggregator, id uint64, latest *stream.LatestID, sender stream.Sender[MatchBatch]) passOutcome {
	total := dataset.Len()
	for offset := 0; offset < total; offset += MatchChunkSize {
		if latest.Superseded(id) {
			return passAborted
		}

		end := offset + MatchChunkSize
		if end > total {
			end = total
		}
		for i := offset; i < end; i++ {
			score := scorer.Score(query, dataset.KeyFor(i), cfg)
			if score == 0 {
				continue
			}
			agg.Push(i, score)
		}

		if latest.Superseded(id) {
			return passAborted
		}
		if batch, ok := agg.FlushPartial(); ok {
			if !sender.Send(ctx, batch, false) {
				return passHungUp
			}
		}
	}

	if latest.Superseded(id) {
		return passAborted
	}
	return passCompleted
}

func sendFinal(ctx context.Context, sender stream.Sender[MatchBatch], batch MatchBatch) bool {
	return sender.Send(ctx, batch, true)
}

// StreamAlphabetical streams dataset in ascending path order, used when the
// query is empty.
func StreamAlphabetical(ctx context.Context, dataset Dataset, sender stream.Sender[MatchBatch], latest *stream.LatestID) bool {
	id := sender.ID()
	total := dataset.Len()
	collector := NewAlphabeticalCollector(total)

	processed := 0
	for i := 0; i < total; i++ {
		if latest.Superseded(id) {
			return true
		}
		collector.Insert(i, dataset.KeyFor(i))
		processed++
		if processed%EmptyQueryBatch == 0 {
			if latest.Superseded(id) {
				return true
			}
			if batch, ok := collector.FlushPartial(); ok {
				if !sender.Send(ctx, batch, false) {
					return false
				}
			}
		}
	}

	if latest.Superseded(id) {
		return true
	}
	return sendFinal(ctx, sender, collector.Finish())
}
