package fuzzy

import "strings"

// Scorer is the pluggable fuzzy-scoring algorithm. score(query, haystack,
// config) -> score is treated as an external, replaceable collaborator: the
// pipeline around it (chunking, aggregation, cancellation) doesn't care how
// the number is produced, only that higher is a better match and 0 means
// "no match, drop it".
type Scorer interface {
	Score(query, haystack string, cfg Config) uint16
}

// DefaultScorer is a minimal subsequence scorer: haystack matches if every
// rune of query appears in haystack in order (case-insensitively), with a
// bonus for contiguous runs and for a first match at the very start of the
// haystack. It ignores cfg.AllowedTypos — it never tolerates substitutions,
// only gaps — which keeps it honest about the difference between "a real
// fuzzy algorithm" and "a default that satisfies the interface".
type DefaultScorer struct{}

// Score implements Scorer.
func (DefaultScorer) Score(query, haystack string, _ Config) uint16 {
	if query == "" {
		return 0
	}
	q := []rune(strings.ToLower(query))
	h := []rune(strings.ToLower(haystack))

	var score uint32
	hi := 0
	runLength := 0
	matchedFirst := -1
	for qi := 0; qi < len(q); qi++ {
		start := hi
		found := -1
		for ; hi < len(h); hi++ {
			if h[hi] == q[qi] {
				found = hi
				break
			}
		}
		if found == -1 {
			return 0
		}
		if matchedFirst == -1 {
			matchedFirst = found
		}
		if qi > 0 && found == start {
			runLength++
		} else {
			runLength = 1
		}
		score += 10 + uint32(runLength)*4
		hi = found + 1
	}

	if matchedFirst == 0 {
		score += 20
	}
	// Reward tighter matches (less slack between first and last matched rune).
	span := hi - matchedFirst
	if span > 0 {
		density := (len(q) * 40) / span
		score += uint32(density)
	}

	if score > uint32(^uint16(0)) {
		score = uint32(^uint16(0))
	}
	return uint16(score)
}
