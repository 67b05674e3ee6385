// Package fuzzy implements the live fuzzy matcher: score aggregation with a
// bounded top-K heap, an alphabetical fallback for empty queries, and the
// chunked, cancellable scoring loop that streams partial MatchBatches to a
// consumer as it works through a dataset.
//
// The concrete scoring algorithm is a pluggable Scorer — this package only
// owns the orchestration around it (config selection, chunking, the result
// cap, cancellation, the two-pass prefilter refinement).
package fuzzy

import "unicode/utf8"

// Tunable thresholds shared across the search pipeline.
const (
	// PrefilterEnableThreshold is the dataset size at which the cheap
	// prefilter pass is enabled.
	PrefilterEnableThreshold = 1000
	// MaxRenderedResults caps how many rows the aggregator will ever hold.
	MaxRenderedResults = 2000
	// MatchChunkSize is the number of rows scored per pass before checking
	// cancellation and flushing partial results.
	MatchChunkSize = 512
	// EmptyQueryBatch is the flush interval, in inserted rows, for the
	// alphabetical fallback.
	EmptyQueryBatch = 128
)

// Config parameterizes a single scoring pass. MaxTypos is nil when typos are
// unbounded (small datasets, where the prefilter is disabled).
type Config struct {
	Prefilter    bool
	AllowedTypos int
	MaxTypos     *int
}

// ConfigForQuery derives the scoring config for a trimmed query and the
// current dataset size.
func ConfigForQuery(query string, datasetLen int) Config {
	length := utf8.RuneCountInString(query)

	var typos int
	switch {
	case length <= 1:
		typos = 0
	case length <= 4:
		typos = 1
	case length <= 7:
		typos = 2
	case length <= 12:
		typos = 3
	default:
		typos = 4
	}
	if max := length - 1; max >= 0 && typos > max {
		typos = max
	}

	cfg := Config{AllowedTypos: typos}
	if datasetLen >= PrefilterEnableThreshold {
		cfg.Prefilter = true
		t := typos
		cfg.MaxTypos = &t
	}
	return cfg
}

// refinedConfig strips the prefilter and typo bound for the second,
// unbounded pass over the surviving candidates.
func refinedConfig(cfg Config) Config {
	cfg.Prefilter = false
	cfg.MaxTypos = nil
	return cfg
}
