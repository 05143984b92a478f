package texgen

import (
	"context"
	"io"
	"time"

	"github.com/alnah/go-texgen/internal/ledger"
	"github.com/alnah/go-texgen/internal/llm"
	"github.com/alnah/go-texgen/internal/prompt"
	"github.com/alnah/go-texgen/internal/render"
	"github.com/alnah/go-texgen/internal/runlog"
	"github.com/alnah/go-texgen/internal/topics"
)

// Status of one record.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Outcome is the terminal state of one record.
type Outcome struct {
	Record     topics.Record
	PromptType string // type actually used, after fallback
	Path       string
	Status     Status
	Err        error
	Attempts   int
	Latency    time.Duration // model time across attempts
	Hash       string        // sha256 of the written document, hex
}

// Summary aggregates a run. Counters and derived rates come from
// runlog.Summary.
type Summary struct {
	runlog.Summary
	Outcomes []Outcome
}

// Ledger records runs and outcomes. *ledger.Store satisfies it.
type Ledger interface {
	BeginRun(ctx context.Context, r ledger.Run) error
	AddEntry(ctx context.Context, e ledger.Entry) error
	FinishRun(ctx context.Context, id, status string, finished time.Time, c ledger.Counts) error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures a Generator.
type Option func(*Generator)

// WithClient sets the generation backend. Required unless the configured
// provider can be built from the environment by the caller.
func WithClient(c llm.Client) Option {
	return func(g *Generator) {
		g.client = c
	}
}

// WithRegistry replaces the prompt template registry built from the config.
func WithRegistry(r *prompt.Registry) Option {
	return func(g *Generator) {
		g.registry = r
	}
}

// WithRenderer replaces the renderer selected by output_format.
func WithRenderer(r render.Renderer) Option {
	return func(g *Generator) {
		g.renderer = r
	}
}

// WithLogger sets the structured run log. Defaults to a no-op logger.
func WithLogger(l *runlog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithLedger records the run in a history store.
func WithLedger(l Ledger) Option {
	return func(g *Generator) {
		g.ledger = l
	}
}

// WithProgress writes one human-readable line per record to w.
func WithProgress(w io.Writer) Option {
	return func(g *Generator) {
		g.progress = w
	}
}

// WithRunID sets the run identifier used in logs and the ledger.
func WithRunID(id string) Option {
	return func(g *Generator) {
		g.runID = id
	}
}

// WithSleeper replaces the backoff sleep, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(g *Generator) {
		g.sleep = s
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WithBaseDir resolves relative template paths from the config against dir.
func WithBaseDir(dir string) Option {
	return func(g *Generator) {
		g.baseDir = dir
	}
}
