// Package preview runs the background preview worker: it turns a selected
// row's path into syntax-ready text (or an image handle, or an error) off
// the UI thread, behind a drain-to-latest command channel and a small LRU
// cache so revisiting a file is instant.
package preview

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	cacheCapacity = 32
	maxTextSize   = 512 * 1024
	maxImageSize  = 10 * 1024 * 1024
	sniffSize     = 8 * 1024
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".webp": true,
}

// Command is one of Generate or Shutdown.
type Command interface{ isCommand() }

// Generate requests a preview for Path. Results are cached by (Path, Theme,
// file mtime).
type Generate struct {
	ID       uint64
	Path     string
	Theme    string
	MaxLines int
}

func (Generate) isCommand() {}

// Shutdown stops the worker.
type Shutdown struct{}

func (Shutdown) isCommand() {}

// Result pairs a request ID with the content generated for it. The UI
// discards results whose ID doesn't match its current selection.
type Result struct {
	ID      uint64
	Content Content
}

// cacheKey includes the file's mtime at stat time, so a cache hit is only
// served while the file is unchanged on disk — editing a file out from
// under an open preview invalidates it on the next request for that path,
// not just a change to a different path.
type cacheKey struct {
	path  string
	theme string
	mtime int64
}

// Spawn starts the preview worker and returns its command and result
// channels. The worker exits when ctx is cancelled, a Shutdown command
// arrives, or the commands channel is closed; in every case it closes the
// results channel before returning.
func Spawn(ctx context.Context, imagePreviewEnabled bool) (chan<- Command, <-chan Result) {
	commands := make(chan Command, 1)
	results := make(chan Result)
	cache, _ := lru.New[cacheKey, Content](cacheCapacity)

	go run(ctx, commands, results, cache, imagePreviewEnabled)

	return commands, results
}

func run(ctx context.Context, commands <-chan Command, results chan<- Result, cache *lru.Cache[cacheKey, Content], imagePreviewEnabled bool) {
	defer close(results)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			switch c := cmd.(type) {
			case Generate:
				final, shutdown := drainToLatest(commands, c)
				if shutdown {
					return
				}
				content := resolve(final, cache, imagePreviewEnabled)
				select {
				case results <- Result{ID: final.ID, Content: content}:
				case <-ctx.Done():
					return
				}
			case Shutdown:
				return
			}
		}
	}
}

// drainToLatest non-blockingly consumes any further Generate commands
// already queued behind the one just received, keeping only the newest. A
// queued Shutdown wins outright.
func drainToLatest(commands <-chan Command, latest Generate) (Generate, bool) {
	for {
		select {
		case cmd := <-commands:
			switch c := cmd.(type) {
			case Generate:
				latest = c
			case Shutdown:
				return Generate{}, true
			}
		default:
			return latest, false
		}
	}
}

func resolve(gen Generate, cache *lru.Cache[cacheKey, Content], imagePreviewEnabled bool) Content {
	info, err := os.Stat(gen.Path)
	if err != nil {
		return errorContent(gen.Path, "not found or unreadable")
	}

	key := cacheKey{path: gen.Path, theme: gen.Theme, mtime: info.ModTime().UnixNano()}
	if cached, ok := cache.Get(key); ok {
		return cached
	}
	content := generate(gen, info, imagePreviewEnabled)
	cache.Add(key, content)
	return content
}

func generate(gen Generate, info os.FileInfo, imagePreviewEnabled bool) Content {
	if !info.Mode().IsRegular() {
		return errorContent(gen.Path, "not a file")
	}

	ext := strings.ToLower(filepath.Ext(gen.Path))
	if imageExtensions[ext] {
		if info.Size() > maxImageSize {
			return errorContent(gen.Path, "too large")
		}
		if !imagePreviewEnabled {
			return errorContent(gen.Path, "image previews disabled")
		}
		return Content{Kind: KindImage, ImagePath: gen.Path, SourcePath: gen.Path}
	}

	if info.Size() > maxTextSize {
		return errorContent(gen.Path, "too large")
	}
	if info.Size() == 0 {
		return Content{Kind: KindEmpty, SourcePath: gen.Path}
	}

	data, err := os.ReadFile(gen.Path)
	if err != nil {
		return errorContent(gen.Path, "not found or unreadable")
	}

	sniff := data
	if len(sniff) > sniffSize {
		sniff = sniff[:sniffSize]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return errorContent(gen.Path, "binary file")
	}

	text := strings.ToValidUTF8(string(data), "�")
	lines := strings.Split(text, "\n")
	if gen.MaxLines > 0 && len(lines) > gen.MaxLines {
		lines = lines[:gen.MaxLines]
	}
	return Content{Kind: KindText, Lines: lines, SourcePath: gen.Path}
}

func errorContent(path, message string) Content {
	return Content{Kind: KindError, Message: message, SourcePath: path}
}
