package fuzzy

// MatchBatch is a partial or final page of scored results for one query id.
// Indices are positional references into the dataset as it stood at scoring
// time. IDs, when present, are stable ids parallel to Indices, filled in by
// producers that are snapshot-aware; a shorter IDs slice than Indices means
// the trailing indices are raw and unresolved.
type MatchBatch struct {
	Indices []int
	IDs     []uint64
	Scores  []uint16
}
