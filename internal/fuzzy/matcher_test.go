package fuzzy_test

import (
	"context"
	"testing"

	"github.com/screenager/frz/internal/fuzzy"
	"github.com/screenager/frz/internal/stream"
)

type stringDataset []string

func (d stringDataset) Len() int            { return len(d) }
func (d stringDataset) KeyFor(i int) string { return d[i] }

func TestConfigForQueryEnablesPrefilterAtThreshold(t *testing.T) {
	cfg := fuzzy.ConfigForQuery("example", fuzzy.PrefilterEnableThreshold)
	if !cfg.Prefilter {
		t.Fatal("expected prefilter enabled at threshold")
	}
	if cfg.MaxTypos == nil || *cfg.MaxTypos != 2 {
		t.Fatalf("expected max typos 2, got %v", cfg.MaxTypos)
	}
}

func TestConfigForQueryDisablesPrefilterBelowThreshold(t *testing.T) {
	cfg := fuzzy.ConfigForQuery("example", fuzzy.PrefilterEnableThreshold-1)
	if cfg.Prefilter {
		t.Fatal("expected prefilter disabled below threshold")
	}
	if cfg.MaxTypos != nil {
		t.Fatal("expected unbounded typos below threshold")
	}
}

func TestConfigForQuerySingleCharHasZeroTypos(t *testing.T) {
	cfg := fuzzy.ConfigForQuery("a", 10)
	if cfg.AllowedTypos != 0 {
		t.Errorf("expected 0 allowed typos for len-1 query, got %d", cfg.AllowedTypos)
	}
}

func TestStreamAlphabeticalOrdersByKey(t *testing.T) {
	dataset := stringDataset{"b", "a", "c"}
	ch := make(chan stream.Envelope[fuzzy.MatchBatch], 8)
	var latest stream.LatestID
	latest.Publish(1)
	sender := stream.NewSender[fuzzy.MatchBatch](ch, 1, "search")

	ok := fuzzy.StreamAlphabetical(context.Background(), dataset, sender, &latest)
	if !ok {
		t.Fatal("stream should complete successfully")
	}
	close(ch)

	var last stream.Envelope[fuzzy.MatchBatch]
	for env := range ch {
		last = env
	}
	if !last.Complete {
		t.Fatal("final envelope should be marked complete")
	}
	wantIndices := []int{1, 0, 2}
	if len(last.Payload.Indices) != len(wantIndices) {
		t.Fatalf("got indices %v, want %v", last.Payload.Indices, wantIndices)
	}
	for i, idx := range wantIndices {
		if last.Payload.Indices[i] != idx {
			t.Errorf("index %d: got %d, want %d", i, last.Payload.Indices[i], idx)
		}
	}
	for _, s := range last.Payload.Scores {
		if s != 0 {
			t.Errorf("expected all scores 0 in alphabetical mode, got %d", s)
		}
	}
}

func TestStreamDatasetDiscardsSupersededQuery(t *testing.T) {
	entries := make([]string, 2000)
	for i := range entries {
		entries[i] = "matching-file"
	}
	dataset := stringDataset(entries)

	ch := make(chan stream.Envelope[fuzzy.MatchBatch], 64)
	var latest stream.LatestID
	latest.Publish(1)
	// Immediately supersede id 1 before the scorer even starts.
	latest.Publish(2)

	sender := stream.NewSender[fuzzy.MatchBatch](ch, 1, "search")
	ok := fuzzy.StreamDataset(context.Background(), dataset, "matching", fuzzy.DefaultScorer{}, sender, &latest)
	if !ok {
		t.Fatal("superseded stream should still report success (not hung up)")
	}
	close(ch)
	for env := range ch {
		if env.Complete {
			t.Fatal("a superseded query must never emit a complete batch")
		}
	}
}

func TestScoreAggregatorCapsAtMaxRendered(t *testing.T) {
	agg := fuzzy.NewScoreAggregator()
	for i := 0; i < fuzzy.MaxRenderedResults+500; i++ {
		agg.Push(i, uint16(i%100)+1)
	}
	if agg.Len() > fuzzy.MaxRenderedResults {
		t.Fatalf("aggregator grew past cap: %d", agg.Len())
	}
	batch := agg.Finish()
	if len(batch.Indices) != fuzzy.MaxRenderedResults {
		t.Fatalf("final batch has %d entries, want %d", len(batch.Indices), fuzzy.MaxRenderedResults)
	}
	for i := 1; i < len(batch.Scores); i++ {
		if batch.Scores[i] > batch.Scores[i-1] {
			t.Fatalf("scores not non-increasing at %d: %d > %d", i, batch.Scores[i], batch.Scores[i-1])
		}
	}
}

func TestEmptyDatasetNonEmptyQueryYieldsOneCompleteBatch(t *testing.T) {
	ch := make(chan stream.Envelope[fuzzy.MatchBatch], 4)
	var latest stream.LatestID
	latest.Publish(1)
	sender := stream.NewSender[fuzzy.MatchBatch](ch, 1, "search")

	ok := fuzzy.StreamDataset(context.Background(), stringDataset(nil), "anything", fuzzy.DefaultScorer{}, sender, &latest)
	if !ok {
		t.Fatal("expected success")
	}
	close(ch)

	var batches []stream.Envelope[fuzzy.MatchBatch]
	for env := range ch {
		batches = append(batches, env)
	}
	if len(batches) != 1 {
		t.Fatalf("expected exactly one batch, got %d", len(batches))
	}
	if !batches[0].Complete {
		t.Fatal("expected the single batch to be complete")
	}
	if len(batches[0].Payload.Indices) != 0 {
		t.Fatal("expected no indices for an empty dataset")
	}
}
