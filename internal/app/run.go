// Package app wires the indexer, search runtime, preview worker, progress
// tracker, and UI together into the single library entry point the CLI
// (and any other embedder) drives a session through.
package app

import (
	"context"

	"github.com/screenager/frz/internal/fswalk"
	"github.com/screenager/frz/internal/fuzzy"
	"github.com/screenager/frz/internal/preview"
	"github.com/screenager/frz/internal/progress"
	"github.com/screenager/frz/internal/row"
	"github.com/screenager/frz/internal/search"
	"github.com/screenager/frz/internal/stream"
	"github.com/screenager/frz/internal/theme"
	"github.com/screenager/frz/internal/ui"
)

// Options configures a session beyond the initial dataset.
type Options struct {
	// CacheDir, when Data.Root is non-empty, is the directory snapshot
	// caches are read from and written to. Empty disables the live
	// filesystem indexer entirely, leaving Data's rows as the whole dataset.
	CacheDir string
	Walk     fswalk.Options

	PreviewEnabled  bool
	PreviewMaxLines int
	ThemeName       string
	Themes          theme.Registry

	Scorer fuzzy.Scorer
}

// Run indexes (if Data.Root is set), searches, previews, and presents an
// interactive session over Data, blocking until the user accepts a row or
// cancels. It never returns before every background goroutine it started
// has been asked to stop.
func Run(ctx context.Context, data row.SearchData, opts Options) (ui.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scorer := opts.Scorer
	if scorer == nil {
		scorer = fuzzy.DefaultScorer{}
	}
	themes := opts.Themes
	if themes == nil {
		themes = theme.Builtin()
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themes.Default().Name
	}
	batTheme, _ := themes.BatTheme(themeName)

	searchResults := make(chan stream.Envelope[fuzzy.MatchBatch], 64)
	searchCommands := make(chan search.Command, 8)
	runtime := search.New(searchResults, scorer)
	if len(data.Files) > 0 {
		seed := data
		searchCommands <- search.ApplyUpdate{Update: row.Update{CachedData: &seed}}
	}
	go runtime.Run(ctx, searchCommands)

	previewCommands, previewResults := preview.Spawn(ctx, opts.PreviewEnabled)

	tracker := progress.New()

	var indexUpdates <-chan row.Update
	if data.Root != "" && opts.CacheDir != "" {
		indexUpdates = fswalk.Index(ctx, data.Root, data.ContextLabel, opts.CacheDir, opts.Walk)
	}

	model := ui.New(data, ui.Config{
		Commands:        searchCommands,
		Results:         searchResults,
		IndexUpdates:    indexUpdates,
		PreviewEnabled:  opts.PreviewEnabled,
		PreviewCommands: previewCommands,
		PreviewResults:  previewResults,
		PreviewMaxLines: opts.PreviewMaxLines,
		PreviewTheme:    batTheme,
		Progress:        tracker,
	})

	labels := map[string]string{
		ui.DatasetKey(data.Root): data.ContextLabel,
	}
	return ui.Run(model, labels)
}
