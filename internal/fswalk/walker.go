// Package fswalk implements the parallel filesystem walker that feeds the
// indexer's batcher: it honors include-hidden, follow-symlinks,
// respect-ignore-files, extension-allowlist, max-depth, and global-ignore
// policies while fanning directory traversal out across a worker pool.
package fswalk

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/screenager/frz/internal/cache"
	"github.com/screenager/frz/internal/row"
)

// Options is the walker's policy configuration. It is identical to the
// cache key's options, since every field that can change what gets indexed
// must also be folded into the cache fingerprint.
type Options = cache.Options

// Walk traverses root according to opts, calling emit for every accepted
// file in no particular order. Emit must be safe to call concurrently.
// Walk returns the first error from a worker, or ctx.Err() if cancelled;
// per-entry read errors are dropped (best-effort enumeration) rather than
// aborting the whole walk.
func Walk(ctx context.Context, root string, opts Options, emit func(row.FileRow)) error {
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	extFilter := extensionSet(opts.AllowedExtensions)
	globalIgnores := stringSet(opts.GlobalIgnores)
	ignores := compileIgnores(root, opts.RespectIgnoreFiles)

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, threads)

	var walkDir func(dir string, depth int) error
	walkDir = func(dir string, depth int) error {
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil
		}

		for _, entry := range entries {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			name := entry.Name()
			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			if _, pruned := globalIgnores[name]; pruned {
				continue
			}

			full := filepath.Join(dir, name)
			rel, err := filepath.Rel(root, full)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			isDir := entry.IsDir()
			if matchesIgnore(ignores, rel, isDir) {
				continue
			}

			if isDir {
				// Directory descent is never gated by sem: a parent must be
				// free to keep discovering and dispatching children without
				// ever blocking while it occupies a slot itself, or a full
				// pool of parents each waiting on a child's slot deadlocks.
				dir := full
				depth := depth
				g.Go(func() error { return walkDir(dir, depth+1) })
				continue
			}

			// Only the per-file work (stat, symlink resolution, the
			// extension check) is throttled to threads concurrent, and only
			// for the duration of that work — this goroutine holds no other
			// slot while waiting, so it always makes progress.
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			func() {
				defer func() { <-sem }()

				info, err := entry.Info()
				if err != nil {
					return
				}
				if info.Mode()&os.ModeSymlink != 0 {
					if !opts.FollowSymlinks {
						return
					}
					resolved, err := filepath.EvalSymlinks(full)
					if err != nil {
						return
					}
					if st, err := os.Stat(resolved); err != nil || st.IsDir() {
						return
					}
				}

				if extFilter != nil {
					ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
					if _, ok := extFilter[ext]; !ok {
						return
					}
				}

				emit(row.Filesystem(rel))
			}()
		}
		return nil
	}

	g.Go(func() error { return walkDir(root, 0) })
	return g.Wait()
}

func extensionSet(exts []string) map[string]struct{} {
	if exts == nil {
		return nil
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return set
}

func stringSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

// compileIgnores loads the project's .gitignore and .git/info/exclude from
// root, when respect is set. A missing or unreadable ignore file is simply
// skipped — ignore files are an optimization, not a correctness dependency.
func compileIgnores(root string, respect bool) []*ignore.GitIgnore {
	if !respect {
		return nil
	}
	var compiled []*ignore.GitIgnore
	for _, candidate := range []string{
		filepath.Join(root, ".gitignore"),
		filepath.Join(root, ".git", "info", "exclude"),
	} {
		if gi, err := ignore.CompileIgnoreFile(candidate); err == nil {
			compiled = append(compiled, gi)
		}
	}
	return compiled
}

func matchesIgnore(ignores []*ignore.GitIgnore, rel string, isDir bool) bool {
	path := rel
	if isDir {
		path += "/"
	}
	for _, gi := range ignores {
		if gi.MatchesPath(path) {
			return true
		}
	}
	return false
}
