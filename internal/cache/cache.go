// Package cache implements the on-disk snapshot cache: a fingerprinted full
// snapshot plus a bounded preview snapshot, written atomically via
// tmp-file-then-rename so a reader never observes a partial write.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/screenager/frz/internal/row"
)

const (
	// Version is rejected on mismatch — there is no migration path, an
	// older or newer cache file is simply treated as a miss.
	Version = 2
	// PreviewLimit bounds how many rows go into the preview snapshot.
	PreviewLimit = 512
	// TTL is how long a cached snapshot is trusted before a fresh index
	// is triggered; the stale snapshot is still shown in the meantime.
	TTL = 60 * time.Second

	previewSuffix = ".preview.json"
)

// Options mirrors the filesystem indexer's walk policy, insofar as it can
// change the outcome of an index for a given root.
type Options struct {
	IncludeHidden      bool
	FollowSymlinks     bool
	RespectIgnoreFiles bool
	AllowedExtensions  []string // nil means "no extension filter"
	GlobalIgnores      []string
	Threads            int
	MaxDepth           int
}

// Fingerprint hashes (root, sorted options) into the 64-bit key that names
// a snapshot's cache file. Two sessions with the same root and equivalent
// options (after sorting their slice fields) always agree on the
// fingerprint, regardless of the order those slices were supplied in.
func Fingerprint(root string, opts Options) uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%s\x00%t\x00%t\x00%t\x00%d\x00%d\x00",
		root, opts.IncludeHidden, opts.FollowSymlinks, opts.RespectIgnoreFiles,
		opts.Threads, opts.MaxDepth)

	if opts.AllowedExtensions == nil {
		h.Write([]byte{0})
	} else {
		h.Write([]byte{1})
		exts := append([]string(nil), opts.AllowedExtensions...)
		sort.Strings(exts)
		for _, e := range exts {
			fmt.Fprintf(h, "%s\x00", e)
		}
	}

	ignores := append([]string(nil), opts.GlobalIgnores...)
	sort.Strings(ignores)
	for _, g := range ignores {
		fmt.Fprintf(h, "%s\x00", g)
	}

	return h.Sum64()
}

// Key names a cache file location for a given root and options.
type Key struct {
	path        string
	previewPath string
	fingerprint uint64
}

// Resolve computes the cache file locations for root under cacheDir (the
// caller's platform-appropriate cache directory). It never touches disk.
func Resolve(cacheDir, root string, opts Options) Key {
	fp := Fingerprint(root, opts)
	name := fmt.Sprintf("%016x.json", fp)
	path := filepath.Join(cacheDir, "filesystem", name)
	preview := path[:len(path)-len(".json")] + previewSuffix
	return Key{path: path, previewPath: preview, fingerprint: fp}
}

// Entry is cached search data retrieved from disk.
type Entry struct {
	Data      row.SearchData
	IndexedAt time.Time
	Complete  bool
}

// ReindexDelay returns how long to wait before starting a fresh walk: zero
// if the cache is already past its TTL.
func (e Entry) ReindexDelay() time.Duration {
	age := time.Since(e.IndexedAt)
	if age >= TTL {
		return 0
	}
	return TTL - age
}

// Load reads the full snapshot. The second return is false on any failure
// — missing file, corrupt JSON, version or fingerprint mismatch — which
// callers treat uniformly as "no cache".
func (k Key) Load() (Entry, bool) {
	return loadPayload(k.path, k.fingerprint)
}

// LoadPreview reads the bounded preview snapshot.
func (k Key) LoadPreview() (Entry, bool) {
	return loadPayload(k.previewPath, k.fingerprint)
}

// payload is the on-disk JSON shape for both the full and preview files.
type payload struct {
	Version      uint32      `json:"version"`
	Fingerprint  uint64      `json:"fingerprint"`
	IndexedAt    uint64      `json:"indexed_at"`
	ContextLabel string      `json:"context_label,omitempty"`
	Complete     bool        `json:"complete"`
	Files        []fileEntry `json:"files"`
}

type fileEntry struct {
	Path string `json:"path"`
}

func loadPayload(path string, fingerprint uint64) (Entry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Entry{}, false
	}
	if p.Version != Version || p.Fingerprint != fingerprint {
		return Entry{}, false
	}

	files := make([]row.FileRow, len(p.Files))
	for i, f := range p.Files {
		files[i] = row.Filesystem(f.Path)
	}

	return Entry{
		Data: row.SearchData{
			ContextLabel: p.ContextLabel,
			Files:        files,
		},
		IndexedAt: time.Unix(int64(p.IndexedAt), 0),
		Complete:  p.Complete,
	}, true
}

// Writer accumulates rows as the indexer emits them and persists both the
// full snapshot and its preview on Finish.
type Writer struct {
	key          Key
	contextLabel string
	files        []fileEntry
}

// NewWriter returns a Writer bound to key.
func NewWriter(key Key, contextLabel string) *Writer {
	return &Writer{key: key, contextLabel: contextLabel}
}

// Record appends a row to the pending snapshot.
func (w *Writer) Record(f row.FileRow) {
	w.files = append(w.files, fileEntry{Path: f.Path})
}

// Finish writes the full snapshot and the first-PreviewLimit-rows preview
// snapshot, each via create-parent, write-tmp, fsync, remove-existing,
// rename. A failure writing one file doesn't block the other; both errors,
// if any, are combined and returned to the caller, who logs them as
// non-fatal (the live session continues either way).
func (w *Writer) Finish() error {
	now := uint64(time.Now().Unix())

	previewFiles := w.files
	if len(previewFiles) > PreviewLimit {
		previewFiles = previewFiles[:PreviewLimit]
	}
	previewComplete := len(previewFiles) == len(w.files)

	full := payload{
		Version:      Version,
		Fingerprint:  w.key.fingerprint,
		IndexedAt:    now,
		ContextLabel: w.contextLabel,
		Complete:     true,
		Files:        w.files,
	}
	preview := payload{
		Version:      Version,
		Fingerprint:  w.key.fingerprint,
		IndexedAt:    now,
		ContextLabel: w.contextLabel,
		Complete:     previewComplete,
		Files:        previewFiles,
	}

	var result *multierror.Error
	if err := writePayload(w.key.path, full); err != nil {
		result = multierror.Append(result, fmt.Errorf("write cache snapshot: %w", err))
	}
	if err := writePayload(w.key.previewPath, preview); err != nil {
		result = multierror.Append(result, fmt.Errorf("write cache preview: %w", err))
	}
	return result.ErrorOrNil()
}

func writePayload(path string, p payload) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal cache payload: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	_ = os.Remove(path)
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmp, path, err)
	}
	return nil
}
