// Package search owns the live search runtime: a single-goroutine worker
// that mirrors the indexed dataset and answers queries against it without
// ever blocking the UI that consumes its results.
package search

import (
	"context"

	"github.com/screenager/frz/internal/fuzzy"
	"github.com/screenager/frz/internal/row"
	"github.com/screenager/frz/internal/stream"
)

// Command is one of Query, ApplyUpdate, or Shutdown, serialized on a single
// inbox channel so the runtime always observes them in send order.
type Command interface{ isCommand() }

// Query asks the runtime to stream match results for Text, tagged with a
// caller-defined Mode forwarded verbatim as the envelope's Kind.
type Query struct {
	ID   uint64
	Text string
	Mode string
}

func (Query) isCommand() {}

// ApplyUpdate merges an indexer Update into the runtime's dataset mirror.
type ApplyUpdate struct {
	Update row.Update
}

func (ApplyUpdate) isCommand() {}

// Shutdown stops the runtime's loop.
type Shutdown struct{}

func (Shutdown) isCommand() {}

// Runtime owns a mirror of SearchData, kept current by ApplyUpdate
// commands, and answers Query commands against it.
type Runtime struct {
	mirror row.SearchData
	latest stream.LatestID
	out    chan<- stream.Envelope[fuzzy.MatchBatch]
	scorer fuzzy.Scorer
}

// New returns a Runtime that streams match batches to out, scoring with
// scorer.
func New(out chan<- stream.Envelope[fuzzy.MatchBatch], scorer fuzzy.Scorer) *Runtime {
	return &Runtime{out: out, scorer: scorer}
}

// Run drains commands until Shutdown, a closed channel, or ctx is
// cancelled. Sending a match batch blocks until the UI receives it or ctx
// is cancelled; a receiver that has merely stopped reading is not detected.
// Once a send is abandoned because ctx was cancelled, Run discards the
// remaining commands until Shutdown arrives or the channel closes.
func (r *Runtime) Run(ctx context.Context, commands <-chan Command) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			if r.handle(ctx, cmd, commands) {
				return
			}
		}
	}
}

// handle processes one command and reports whether Run should stop.
func (r *Runtime) handle(ctx context.Context, cmd Command, commands <-chan Command) bool {
	switch c := cmd.(type) {
	case Query:
		r.latest.Publish(c.ID)
		sender := stream.NewSender(r.out, c.ID, c.Mode)
		if !fuzzy.StreamDataset(ctx, &r.mirror, c.Text, r.scorer, sender, &r.latest) {
			r.drainUntilShutdown(commands)
			return true
		}
		return false
	case ApplyUpdate:
		r.mirror.Merge(c.Update)
		return false
	case Shutdown:
		return true
	default:
		return false
	}
}

func (r *Runtime) drainUntilShutdown(commands <-chan Command) {
	for cmd := range commands {
		if _, ok := cmd.(Shutdown); ok {
			return
		}
	}
}
