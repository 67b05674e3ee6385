package row

// Progress is a monotonic indexed/total counter for one dataset key. Indexed
// never regresses; Total, once known, never drops below Indexed.
type Progress struct {
	Indexed  int
	Total    *int
	Complete bool
}

// Update is a batch emitted by a producer (the filesystem indexer, or a
// synthetic cache-hydration replay) describing new rows and the dataset's
// progress so far.
type Update struct {
	// Files holds newly discovered rows, in the order they were produced.
	Files []FileRow
	// Progress reports this update's view of indexed/total/complete.
	Progress Progress
	// Reset instructs the receiver to discard its prior rows before
	// appending Files — used for cache hydration and reindex restarts.
	Reset bool
	// CachedData, when set, is a wholesale replacement snapshot: the
	// receiver adopts it directly instead of appending Files.
	CachedData *SearchData
}

// Merge applies u to d following the indexer's IndexUpdate semantics: a
// CachedData payload replaces the snapshot wholesale, a Reset discards prior
// rows before appending, and otherwise Files are appended in place.
func (d *SearchData) Merge(u Update) {
	if u.CachedData != nil {
		*d = u.CachedData.Clone()
		return
	}
	if u.Reset {
		d.Files = d.Files[:0]
	}
	d.Files = append(d.Files, u.Files...)
}
