// Package row defines the canonical tabular row type shared across the
// indexer, matcher, and UI layers, along with the stable-id scheme that lets
// those layers refer to a row across snapshot boundaries.
package row

import (
	"github.com/cespare/xxhash/v2"
)

// FileRow is a single tabular row produced by a dataset. Rows are immutable
// once constructed: the indexer and the cache loader are the only producers.
type FileRow struct {
	// Path is both the display text and the text the matcher scores against.
	Path string
	// ID is a stable 64-bit identifier, deterministic over (Dataset, Path).
	// It survives reordering, insertion of new rows, and a round trip
	// through the on-disk cache.
	ID uint64
	// Dataset tags which row kind this is, for sessions where multiple row
	// kinds coexist. Empty for the default filesystem dataset.
	Dataset string
}

// New builds a FileRow for dataset with a deterministically derived ID.
func New(dataset, path string) FileRow {
	return FileRow{
		Path:    path,
		ID:      StableID(dataset, path),
		Dataset: dataset,
	}
}

// Filesystem builds a FileRow in the default ("") dataset, as produced by the
// filesystem indexer.
func Filesystem(path string) FileRow {
	return New("", path)
}

// StableID computes the deterministic 64-bit id for (dataset, path). Two
// independent processes hashing the same pair always agree, because the
// hash has no process-local seed.
func StableID(dataset, path string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(dataset)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(path)
	return h.Sum64()
}

// SearchData is the in-memory row set backing one search session. Indices
// into Files are positional and only meaningful within the SearchData value
// that produced them; FileRow.ID is the portable reference across snapshots.
//
// SearchData is mutated only by the UI apply loop and the search-runtime
// mirror, and never concurrently on the same instance — callers crossing a
// goroutine boundary must hand off a fresh copy or rely on the stream
// channel's envelope semantics instead of sharing a SearchData value.
type SearchData struct {
	// Root is the filesystem root this dataset was indexed from, if any.
	Root string
	// ContextLabel is a short human-readable description shown in the UI
	// header (e.g. the root's base name).
	ContextLabel string
	// InitialQuery pre-seeds the search box when the session starts.
	InitialQuery string
	// Files holds the row set in display order.
	Files []FileRow
}

// Len returns the number of rows in the dataset.
func (d *SearchData) Len() int { return len(d.Files) }

// KeyFor returns the searchable text for the row at index, satisfying the
// fuzzy matcher's Dataset interface.
func (d *SearchData) KeyFor(index int) string { return d.Files[index].Path }

// IDMap returns { id -> current index } for the active snapshot. Callers
// that captured ids from an older snapshot resolve them through this map to
// find the row's current position.
func (d *SearchData) IDMap() map[uint64]int {
	m := make(map[uint64]int, len(d.Files))
	for i, f := range d.Files {
		m[f.ID] = i
	}
	return m
}

// Clone returns a deep-enough copy of d: the Files slice is copied so the
// receiver and the clone can be mutated independently, while the FileRow
// values themselves (immutable) are shared.
func (d *SearchData) Clone() SearchData {
	out := *d
	out.Files = make([]FileRow, len(d.Files))
	copy(out.Files, d.Files)
	return out
}
