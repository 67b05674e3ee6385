package ui_test

import (
	"testing"
	"time"

	"github.com/screenager/frz/internal/fuzzy"
	"github.com/screenager/frz/internal/preview"
	"github.com/screenager/frz/internal/progress"
	"github.com/screenager/frz/internal/row"
	"github.com/screenager/frz/internal/search"
	"github.com/screenager/frz/internal/stream"
	"github.com/screenager/frz/internal/ui"
)

func rows(paths ...string) []row.FileRow {
	out := make([]row.FileRow, len(paths))
	for i, p := range paths {
		out[i] = row.Filesystem(p)
	}
	return out
}

func newTestModel(t *testing.T, data row.SearchData) (*ui.Model, chan search.Command, chan stream.Envelope[fuzzy.MatchBatch]) {
	t.Helper()
	commands := make(chan search.Command, 4)
	results := make(chan stream.Envelope[fuzzy.MatchBatch], 4)
	m := ui.New(data, ui.Config{
		Commands: commands,
		Results:  results,
	})
	return m, commands, results
}

func TestSetQueryMarksDirtyOnlyOnChange(t *testing.T) {
	data := row.SearchData{Files: rows("a.go", "b.go")}
	m, commands, _ := newTestModel(t, data)

	m.DispatchSearch()
	select {
	case <-commands:
	default:
		t.Fatal("expected initial dispatch from New's dirty mark")
	}

	m.SetQuery("a")
	m.DispatchSearch()
	select {
	case cmd := <-commands:
		q, ok := cmd.(search.Query)
		if !ok || q.Text != "a" {
			t.Fatalf("got %#v, want Query{Text: a}", cmd)
		}
	default:
		t.Fatal("expected a dispatch after query changed")
	}

	m.DispatchSearch()
	select {
	case cmd := <-commands:
		t.Fatalf("expected no redispatch without a change, got %#v", cmd)
	default:
	}
}

func TestDispatchSearchSuppressesIndexOnlyChurnOnSettledResults(t *testing.T) {
	data := row.SearchData{Files: rows("a.go")}
	m, commands, _ := newTestModel(t, data)

	m.DispatchSearch() // drain the initial dispatch from New's dirty mark
	<-commands

	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{0}, Scores: []uint16{1}})

	// An index update alone, with no new user input and a non-empty,
	// already-displayed result set, should not trigger a redispatch.
	m.ApplyIndexUpdate(row.Update{Files: rows("b.go")})
	if _, ok := (<-commands).(search.ApplyUpdate); !ok {
		t.Fatal("expected ApplyIndexUpdate to forward an ApplyUpdate command")
	}
	m.DispatchSearch()
	select {
	case cmd := <-commands:
		t.Fatalf("expected no redispatch from an idle index update, got %#v", cmd)
	default:
	}

	// A user keystroke still redispatches even with a settled result set.
	m.SetQuery("a")
	m.DispatchSearch()
	select {
	case <-commands:
	default:
		t.Fatal("expected a dispatch after user input")
	}
}

func TestDispatchSearchStillRefreshesOnIndexUpdateWhenNoResultsYet(t *testing.T) {
	data := row.SearchData{Files: rows("a.go")}
	m, commands, _ := newTestModel(t, data)

	m.DispatchSearch() // drain the initial dispatch from New's dirty mark
	<-commands

	// No results applied yet (FilteredLen() == 0): an index update alone
	// could still change what's displayed, so it should redispatch.
	m.ApplyIndexUpdate(row.Update{Files: rows("b.go")})
	if _, ok := (<-commands).(search.ApplyUpdate); !ok {
		t.Fatal("expected ApplyIndexUpdate to forward an ApplyUpdate command")
	}
	m.DispatchSearch()
	select {
	case cmd := <-commands:
		if _, ok := cmd.(search.Query); !ok {
			t.Fatalf("got %#v, want a Query redispatch", cmd)
		}
	default:
		t.Fatal("expected a redispatch when nothing is displayed yet")
	}
}

func TestDispatchSearchRetriesWhenInboxFull(t *testing.T) {
	data := row.SearchData{Files: rows("a.go")}
	commands := make(chan search.Command) // unbuffered, nobody reads
	results := make(chan stream.Envelope[fuzzy.MatchBatch], 1)
	m := ui.New(data, ui.Config{Commands: commands, Results: results})

	m.DispatchSearch() // send blocks forever on unbuffered chan with default branch, so it should just skip
	m.DispatchSearch() // still should not panic or deadlock
}

func TestApplyMatchBatchResolvesByStableID(t *testing.T) {
	a, b, c := row.Filesystem("a.go"), row.Filesystem("b.go"), row.Filesystem("c.go")
	data := row.SearchData{Files: []row.FileRow{a, b, c}}
	m, _, _ := newTestModel(t, data)

	// Simulate the dataset having been reordered since the batch was scored:
	// the batch carries stable IDs, which should resolve through the current
	// row id map regardless of the raw indices.
	m.ApplyMatchBatch(fuzzy.MatchBatch{
		Indices: []int{0, 1},
		IDs:     []uint64{c.ID, a.ID},
		Scores:  []uint16{200, 100},
	})

	row0, ok := m.SelectedRow()
	if !ok {
		t.Fatal("expected a selection after a non-empty batch")
	}
	if row0.Path != "c.go" {
		t.Fatalf("got selected %q, want c.go (first of resolved filtered set)", row0.Path)
	}
}

func TestApplyMatchBatchFallsBackToRawIndexOnIDMiss(t *testing.T) {
	a := row.Filesystem("a.go")
	data := row.SearchData{Files: []row.FileRow{a}}
	m, _, _ := newTestModel(t, data)

	m.ApplyMatchBatch(fuzzy.MatchBatch{
		Indices: []int{0},
		IDs:     []uint64{0xDEADBEEF}, // unresolvable id
		Scores:  []uint16{50},
	})

	if m.FilteredLen() != 1 {
		t.Fatalf("got filtered len %d, want 1 (fallback to raw index)", m.FilteredLen())
	}
}

func TestApplyMatchBatchDropsTrailingUnresolvableIDWithNoFallback(t *testing.T) {
	data := row.SearchData{Files: rows("a.go")}
	m, _, _ := newTestModel(t, data)

	// IDs longer than Indices: the extra id has no positional fallback and
	// should be dropped, not panic.
	m.ApplyMatchBatch(fuzzy.MatchBatch{
		Indices: []int{},
		IDs:     []uint64{0x1, 0x2},
		Scores:  []uint16{},
	})

	if m.FilteredLen() != 0 {
		t.Fatalf("got filtered len %d, want 0", m.FilteredLen())
	}
}

func TestApplyMatchBatchAppendsTrailingRawIndicesBeyondIDs(t *testing.T) {
	a, b := row.Filesystem("a.go"), row.Filesystem("b.go")
	data := row.SearchData{Files: []row.FileRow{a, b}}
	m, _, _ := newTestModel(t, data)

	m.ApplyMatchBatch(fuzzy.MatchBatch{
		Indices: []int{0, 1},
		IDs:     []uint64{a.ID}, // shorter than Indices
		Scores:  []uint16{10, 5},
	})

	if m.FilteredLen() != 2 {
		t.Fatalf("got filtered len %d, want 2 (trailing raw index appended)", m.FilteredLen())
	}
}

func TestEnsureSelectionClampsWhenFilteredShrinks(t *testing.T) {
	data := row.SearchData{Files: rows("a.go", "b.go", "c.go")}
	m, _, _ := newTestModel(t, data)

	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{0, 1, 2}, Scores: []uint16{1, 1, 1}})
	m.MoveSelection(2) // select index 2

	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{0}, Scores: []uint16{1}})
	row0, ok := m.SelectedRow()
	if !ok || row0.Path != "a.go" {
		t.Fatalf("got %+v, ok=%v, want a.go selected after shrink", row0, ok)
	}
}

func TestEnsureSelectionClearsWhenFilteredEmpties(t *testing.T) {
	data := row.SearchData{Files: rows("a.go")}
	m, _, _ := newTestModel(t, data)

	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{0}, Scores: []uint16{1}})
	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{}, Scores: []uint16{}})

	if _, ok := m.SelectedRow(); ok {
		t.Fatal("expected no selection once the filtered set is empty")
	}
}

func TestMoveSelectionClampsToBounds(t *testing.T) {
	data := row.SearchData{Files: rows("a.go", "b.go")}
	m, _, _ := newTestModel(t, data)
	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{0, 1}, Scores: []uint16{1, 1}})

	m.MoveSelection(-5)
	row0, _ := m.SelectedRow()
	if row0.Path != "a.go" {
		t.Fatalf("got %q, want a.go at lower bound", row0.Path)
	}

	m.MoveSelection(5)
	row1, _ := m.SelectedRow()
	if row1.Path != "b.go" {
		t.Fatalf("got %q, want b.go at upper bound", row1.Path)
	}
}

func TestDrainMatchBatchesDiscardsStaleEnvelopes(t *testing.T) {
	data := row.SearchData{Files: rows("a.go", "b.go")}
	m, commands, results := newTestModel(t, data)

	m.SetQuery("a")
	m.DispatchSearch()
	cmd := <-commands
	q := cmd.(search.Query)

	// A stale envelope, from a superseded query id, should be ignored.
	results <- stream.Envelope[fuzzy.MatchBatch]{ID: q.ID - 1, Payload: fuzzy.MatchBatch{Indices: []int{0}}}
	// The current envelope should be applied.
	results <- stream.Envelope[fuzzy.MatchBatch]{ID: q.ID, Payload: fuzzy.MatchBatch{Indices: []int{1}}, Complete: true}

	applied := m.DrainMatchBatches()
	if applied != 1 {
		t.Fatalf("got %d applied, want 1 (stale envelope discarded)", applied)
	}
	if m.FilteredLen() != 1 {
		t.Fatalf("got filtered len %d, want 1", m.FilteredLen())
	}
}

func TestDrainIndexUpdatesAppliesUpToPerTickCap(t *testing.T) {
	data := row.SearchData{}
	updates := make(chan row.Update, ui.MaxIndexUpdatesPerTick+10)
	for i := 0; i < ui.MaxIndexUpdatesPerTick+5; i++ {
		updates <- row.Update{Files: []row.FileRow{row.Filesystem("x")}}
	}
	close(updates)

	commands := make(chan search.Command, ui.MaxIndexUpdatesPerTick+10)
	m := ui.New(data, ui.Config{Commands: commands, IndexUpdates: updates})

	applied := m.DrainIndexUpdates()
	if applied != ui.MaxIndexUpdatesPerTick {
		t.Fatalf("got %d applied, want the per-tick cap %d", applied, ui.MaxIndexUpdatesPerTick)
	}
}

func TestDrainIndexUpdatesFeedsProgressTracker(t *testing.T) {
	data := row.SearchData{}
	updates := make(chan row.Update, 1)
	total := 10
	updates <- row.Update{
		Files:    rows("a.go"),
		Progress: row.Progress{Indexed: 1, Total: &total},
	}

	tracker := progress.New()
	commands := make(chan search.Command, 1)
	m := ui.New(data, ui.Config{Commands: commands, IndexUpdates: updates, Progress: tracker})
	m.DrainIndexUpdates()

	status, complete := tracker.Status(nil)
	if complete {
		t.Fatal("expected incomplete with indexed < total")
	}
	if status == "" {
		t.Fatal("expected a non-empty status string")
	}
}

func TestGateExpiresOnTimeout(t *testing.T) {
	data := row.SearchData{Files: rows("a.go")}
	m, _, _ := newTestModel(t, data)

	if m.GateExpired() {
		t.Fatal("gate should not expire immediately")
	}
	// Can't fast-forward real time without a clock seam; rely on the
	// configured timeout being short enough to observe directly.
	time.Sleep(ui.InitialResultsTimeout + 20*time.Millisecond)
	if !m.GateExpired() {
		t.Fatal("expected the gate to expire after its timeout")
	}
}

func TestSelectedResolvesStableID(t *testing.T) {
	a := row.Filesystem("a.go")
	data := row.SearchData{Files: []row.FileRow{a}}
	m, _, _ := newTestModel(t, data)
	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{0}, Scores: []uint16{1}})

	sel, ok := m.Selected()
	if !ok || sel.Path != "a.go" || sel.ID != a.ID {
		t.Fatalf("got %+v, ok=%v, want a.go/%d", sel, ok, a.ID)
	}
}

func TestPreviewTriggeredOnSelectionChange(t *testing.T) {
	data := row.SearchData{Files: rows("a.go", "b.go")}
	previewCommands := make(chan preview.Command, 4)
	previewResults := make(chan preview.Result, 4)
	m := ui.New(data, ui.Config{
		Commands:        make(chan search.Command, 4),
		PreviewEnabled:  true,
		PreviewCommands: previewCommands,
		PreviewResults:  previewResults,
	})

	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{0, 1}, Scores: []uint16{1, 1}})
	select {
	case cmd := <-previewCommands:
		gen, ok := cmd.(preview.Generate)
		if !ok || gen.Path != "a.go" {
			t.Fatalf("got %#v, want Generate{Path: a.go}", cmd)
		}
	default:
		t.Fatal("expected a preview request for the initial selection")
	}

	m.MoveSelection(1)
	select {
	case cmd := <-previewCommands:
		gen := cmd.(preview.Generate)
		if gen.Path != "b.go" {
			t.Fatalf("got %q, want b.go", gen.Path)
		}
	default:
		t.Fatal("expected a preview request when selection moved")
	}
}

func TestPreviewNotRetriggeredForSamePath(t *testing.T) {
	data := row.SearchData{Files: rows("a.go")}
	previewCommands := make(chan preview.Command, 4)
	m := ui.New(data, ui.Config{
		Commands:        make(chan search.Command, 4),
		PreviewEnabled:  true,
		PreviewCommands: previewCommands,
	})

	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{0}, Scores: []uint16{1}})
	<-previewCommands // the initial request

	m.MoveSelection(0) // no-op move, same row
	select {
	case cmd := <-previewCommands:
		t.Fatalf("expected no new preview request, got %#v", cmd)
	default:
	}
}

func TestDrainPreviewResultsIgnoresStaleID(t *testing.T) {
	data := row.SearchData{Files: rows("a.go")}
	previewCommands := make(chan preview.Command, 4)
	previewResults := make(chan preview.Result, 4)
	m := ui.New(data, ui.Config{
		Commands:        make(chan search.Command, 4),
		PreviewEnabled:  true,
		PreviewCommands: previewCommands,
		PreviewResults:  previewResults,
	})
	m.ApplyMatchBatch(fuzzy.MatchBatch{Indices: []int{0}, Scores: []uint16{1}})
	<-previewCommands

	previewResults <- preview.Result{ID: 999, Content: preview.Content{Kind: preview.KindText, Lines: []string{"stale"}}}
	previewResults <- preview.Result{ID: 1, Content: preview.Content{Kind: preview.KindText, Lines: []string{"fresh"}}}

	m.DrainPreviewResults()
	got := m.PreviewContent()
	if len(got.Lines) != 1 || got.Lines[0] != "fresh" {
		t.Fatalf("got %+v, want the fresh result only", got)
	}
}

func TestShutdownSendsToBothWorkers(t *testing.T) {
	data := row.SearchData{}
	commands := make(chan search.Command, 1)
	previewCommands := make(chan preview.Command, 1)
	m := ui.New(data, ui.Config{Commands: commands, PreviewCommands: previewCommands})

	m.Shutdown()

	if _, ok := (<-commands).(search.Shutdown); !ok {
		t.Fatal("expected a search.Shutdown command")
	}
	if _, ok := (<-previewCommands).(preview.Shutdown); !ok {
		t.Fatal("expected a preview.Shutdown command")
	}
}
