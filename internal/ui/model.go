// Package ui holds the search session's pure application state: the
// revision bookkeeping that decides when to (re)dispatch a query, the
// match-batch apply algorithm, selection tracking, and the preview and
// progress glue. It has no dependency on the terminal framework, so it can
// be driven and tested without a running program.
package ui

import (
	"time"

	"github.com/screenager/frz/internal/fuzzy"
	"github.com/screenager/frz/internal/preview"
	"github.com/screenager/frz/internal/progress"
	"github.com/screenager/frz/internal/row"
	"github.com/screenager/frz/internal/search"
	"github.com/screenager/frz/internal/stream"
)

const (
	// MaxIndexUpdatesPerTick bounds how many indexer updates DrainIndexUpdates
	// applies in one call, so a large backlog can't stall a frame.
	MaxIndexUpdatesPerTick = 32
	// MaxIndexProcessingTime is the wall-clock budget for the same drain,
	// checked whichever of the two limits is hit first.
	MaxIndexProcessingTime = 8 * time.Millisecond
	// InitialResultsTimeout bounds how long the UI waits for the first match
	// batch before drawing a "no results yet" frame anyway.
	InitialResultsTimeout = 250 * time.Millisecond
)

// revisions tracks the three monotonic counters that decide when a search
// needs to be (re)dispatched.
type revisions struct {
	input         uint64
	lastApplied   uint64
	lastUserInput uint64
}

func (r *revisions) markDirty() { r.input++ }

func (r *revisions) markDirtyFromUserInput() {
	r.markDirty()
	r.lastUserInput = r.input
}

// needsDispatch reports whether a search should be (re)issued. Any dirtying
// from direct user input always qualifies. Dirtying from index updates alone
// qualifies only when hasResults is false — an index update can't change an
// already-displayed, non-empty result set into something worth redrawing,
// so refreshing on it while the user is idle would just churn the list.
func (r *revisions) needsDispatch(hasResults bool) bool {
	if r.input <= r.lastApplied {
		return false
	}
	if r.lastUserInput > r.lastApplied {
		return true
	}
	return !hasResults
}

func (r *revisions) recordDispatch() { r.lastApplied = r.input }

// Selection names a row the user picked, resolved through its stable id.
type Selection struct {
	Path string
	ID   uint64
}

// Model is the pure state of one search session: the dataset mirror, the
// current filtered view, selection, preview, and progress. Every exported
// method is safe to call from a single goroutine only — callers that bridge
// to a concurrent UI framework serialize access themselves.
type Model struct {
	data     row.SearchData
	rowIDMap map[uint64]int

	filtered []int
	scores   []uint16
	selected int // -1 means no selection

	queryText string
	rev       revisions

	queryCounter uint64
	dispatchedID uint64

	commands chan<- search.Command
	results  <-chan stream.Envelope[fuzzy.MatchBatch]

	indexUpdates <-chan row.Update

	previewEnabled   bool
	previewCommands  chan<- preview.Command
	previewResults   <-chan preview.Result
	previewID        uint64
	lastPreviewPath  string
	previewContent   preview.Content
	previewMaxLines  int
	previewTheme     string

	progress *progress.Tracker

	gateActive   bool
	gateDeadline time.Time
}

// Config bundles the channels and collaborators a Model is wired to.
type Config struct {
	Commands        chan<- search.Command
	Results         <-chan stream.Envelope[fuzzy.MatchBatch]
	IndexUpdates    <-chan row.Update
	PreviewEnabled  bool
	PreviewCommands chan<- preview.Command
	PreviewResults  <-chan preview.Result
	PreviewMaxLines int
	PreviewTheme    string
	Progress        *progress.Tracker
}

// New returns a Model seeded with data's initial rows and query, gated for
// up to InitialResultsTimeout starting now.
func New(data row.SearchData, cfg Config) *Model {
	m := &Model{
		data:            data,
		rowIDMap:        data.IDMap(),
		selected:        -1,
		queryText:       data.InitialQuery,
		commands:        cfg.Commands,
		results:         cfg.Results,
		indexUpdates:    cfg.IndexUpdates,
		previewEnabled:  cfg.PreviewEnabled,
		previewCommands: cfg.PreviewCommands,
		previewResults:  cfg.PreviewResults,
		previewMaxLines: cfg.PreviewMaxLines,
		previewTheme:    cfg.PreviewTheme,
		progress:        cfg.Progress,
		gateActive:      true,
		gateDeadline:    time.Now().Add(InitialResultsTimeout),
	}
	m.rev.markDirty()
	return m
}

// SetQuery updates the query text from direct user input, marking it dirty
// so the next tick redispatches a search.
func (m *Model) SetQuery(text string) {
	if text == m.queryText {
		return
	}
	m.queryText = text
	m.rev.markDirtyFromUserInput()
}

// Query returns the current query text.
func (m *Model) Query() string { return m.queryText }

// DispatchSearch sends a Query command if the input has moved since the
// last one was accepted and doing so wouldn't just churn an already-settled
// result set (see revisions.needsDispatch). It never blocks: if the
// runtime's inbox is full, the attempt is retried on the next call, since
// rev.input hasn't been marked applied yet.
func (m *Model) DispatchSearch() {
	if !m.rev.needsDispatch(len(m.filtered) > 0) || m.commands == nil {
		return
	}
	id := m.queryCounter + 1
	select {
	case m.commands <- search.Query{ID: id, Text: m.queryText, Mode: "files"}:
		m.queryCounter = id
		m.dispatchedID = id
		m.rev.recordDispatch()
	default:
	}
}

// ApplyIndexUpdate merges an indexer update into the model's own dataset
// copy (kept in parallel with the search runtime's mirror so the UI can
// resolve stable ids and selected paths without round-tripping a query),
// forwards it to the runtime, and dirties the query since newly indexed
// rows can change what's displayed.
func (m *Model) ApplyIndexUpdate(u row.Update) {
	root := m.data.Root
	m.data.Merge(u)
	if m.data.Root == "" {
		// Cached snapshots carry no root; keep the session's own so the
		// progress key stays the same across cache hydration.
		m.data.Root = root
	}
	m.rowIDMap = m.data.IDMap()
	if m.progress != nil {
		key := DatasetKey(m.data.Root)
		m.progress.RecordIndexed(key, u.Progress.Indexed)
		if u.Progress.Total != nil {
			m.progress.SetTotal(key, *u.Progress.Total)
		}
		if u.Progress.Complete {
			m.progress.MarkComplete()
		}
	}
	if m.commands != nil {
		select {
		case m.commands <- search.ApplyUpdate{Update: u}:
		default:
			// Runtime inbox is momentarily full; its own mirror will catch
			// up on the next accepted command since updates are cumulative.
		}
	}
	m.rev.markDirty()
}

// DrainIndexUpdates applies up to MaxIndexUpdatesPerTick queued updates, or
// stops early once MaxIndexProcessingTime has elapsed, whichever comes
// first. It reports how many updates were applied.
func (m *Model) DrainIndexUpdates() int {
	if m.indexUpdates == nil {
		return 0
	}
	deadline := time.Now().Add(MaxIndexProcessingTime)
	applied := 0
	for applied < MaxIndexUpdatesPerTick {
		select {
		case u, ok := <-m.indexUpdates:
			if !ok {
				m.indexUpdates = nil
				return applied
			}
			m.ApplyIndexUpdate(u)
			applied++
			if time.Now().After(deadline) {
				return applied
			}
		default:
			return applied
		}
	}
	return applied
}

// DrainMatchBatches applies every match batch currently queued, discarding
// any stamped with an id other than the most recently dispatched query.
func (m *Model) DrainMatchBatches() int {
	if m.results == nil {
		return 0
	}
	applied := 0
	for {
		select {
		case env, ok := <-m.results:
			if !ok {
				m.results = nil
				return applied
			}
			if env.ID != m.dispatchedID {
				continue
			}
			m.ApplyMatchBatch(env.Payload)
			m.settleGate(len(env.Payload.Indices) > 0 || env.Complete)
			applied++
		default:
			return applied
		}
	}
}

// ApplyMatchBatch reconciles a batch of matches against the row id map,
// falling back to the batch's raw index at the same offset when an id
// can't be resolved (a row dropped from the dataset since scoring, say),
// and dropping the candidate entirely when neither resolves.
func (m *Model) ApplyMatchBatch(b fuzzy.MatchBatch) {
	var filtered []int
	if len(b.IDs) > 0 {
		idsLen := len(b.IDs)
		filtered = make([]int, 0, idsLen)
		for offset, id := range b.IDs {
			if idx, ok := m.rowIDMap[id]; ok {
				filtered = append(filtered, idx)
				continue
			}
			if offset < len(b.Indices) {
				filtered = append(filtered, b.Indices[offset])
			}
		}
		if idsLen < len(b.Indices) {
			filtered = append(filtered, b.Indices[idsLen:]...)
		}
	} else {
		filtered = b.Indices
	}

	m.filtered = filtered
	m.scores = b.Scores
	m.ensureSelection()
	m.maybeTriggerPreview()
}

func (m *Model) settleGate(hasResults bool) {
	if !m.gateActive {
		return
	}
	if hasResults || time.Now().After(m.gateDeadline) {
		m.gateActive = false
	}
}

// GateExpired reports whether the initial-results gate should stop holding
// back the draw, either because a batch arrived or because the timeout
// passed.
func (m *Model) GateExpired() bool {
	if !m.gateActive {
		return true
	}
	if time.Now().After(m.gateDeadline) {
		m.gateActive = false
	}
	return !m.gateActive
}

// FilteredLen returns the number of rows in the current filtered view.
func (m *Model) FilteredLen() int { return len(m.filtered) }

// ensureSelection keeps the selected index valid as the filtered view
// shrinks, grows, or clears, preferring to preserve the user's prior choice.
func (m *Model) ensureSelection() {
	n := len(m.filtered)
	switch {
	case n == 0:
		m.selected = -1
	case m.selected < 0:
		m.selected = 0
	case m.selected >= n:
		m.selected = n - 1
	}
}

// MoveSelection shifts the selection by delta rows, clamped to the filtered
// view's bounds.
func (m *Model) MoveSelection(delta int) {
	n := len(m.filtered)
	if n == 0 {
		return
	}
	next := m.selected + delta
	if next < 0 {
		next = 0
	}
	if next >= n {
		next = n - 1
	}
	m.selected = next
	m.maybeTriggerPreview()
}

// SelectedRow returns the currently selected row, if any.
func (m *Model) SelectedRow() (row.FileRow, bool) {
	if m.selected < 0 || m.selected >= len(m.filtered) {
		return row.FileRow{}, false
	}
	idx := m.filtered[m.selected]
	if idx < 0 || idx >= len(m.data.Files) {
		return row.FileRow{}, false
	}
	return m.data.Files[idx], true
}

// Selected resolves the current selection to a Selection value, the
// outcome produced on Enter.
func (m *Model) Selected() (Selection, bool) {
	r, ok := m.SelectedRow()
	if !ok {
		return Selection{}, false
	}
	return Selection{Path: r.Path, ID: r.ID}, true
}

// PreviewContent returns the most recently applied preview payload.
func (m *Model) PreviewContent() preview.Content { return m.previewContent }

// maybeTriggerPreview issues a preview request when the selected path has
// changed since the last one, replacing any request still queued behind
// the worker's drain-to-latest channel.
func (m *Model) maybeTriggerPreview() {
	if !m.previewEnabled || m.previewCommands == nil {
		return
	}
	r, ok := m.SelectedRow()
	if !ok {
		m.lastPreviewPath = ""
		return
	}
	if r.Path == m.lastPreviewPath {
		return
	}
	m.lastPreviewPath = r.Path
	m.previewID++
	cmd := preview.Generate{
		ID:       m.previewID,
		Path:     r.Path,
		Theme:    m.previewTheme,
		MaxLines: m.previewMaxLines,
	}
	select {
	case m.previewCommands <- cmd:
	default:
		select {
		case <-m.previewCommands:
		default:
		}
		select {
		case m.previewCommands <- cmd:
		default:
		}
	}
}

// DrainPreviewResults applies every preview result currently queued,
// keeping only the one matching the most recently requested id.
func (m *Model) DrainPreviewResults() int {
	if m.previewResults == nil {
		return 0
	}
	applied := 0
	for {
		select {
		case res, ok := <-m.previewResults:
			if !ok {
				m.previewResults = nil
				return applied
			}
			if res.ID == m.previewID {
				m.previewContent = res.Content
			}
			applied++
		default:
			return applied
		}
	}
}

// Shutdown asks the search runtime and preview worker to stop.
func (m *Model) Shutdown() {
	if m.commands != nil {
		select {
		case m.commands <- search.Shutdown{}:
		default:
		}
	}
	if m.previewCommands != nil {
		select {
		case m.previewCommands <- preview.Shutdown{}:
		default:
		}
	}
}

// DatasetKey returns the progress tracker key a dataset rooted at root is
// recorded under, so a caller building the tracker's status labels can
// address the same entry.
func DatasetKey(root string) string {
	if root == "" {
		return "files"
	}
	return root
}
