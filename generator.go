package texgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-texgen/internal/assets"
	"github.com/alnah/go-texgen/internal/config"
	"github.com/alnah/go-texgen/internal/dateutil"
	"github.com/alnah/go-texgen/internal/fileutil"
	"github.com/alnah/go-texgen/internal/hints"
	"github.com/alnah/go-texgen/internal/ledger"
	"github.com/alnah/go-texgen/internal/llm"
	"github.com/alnah/go-texgen/internal/prompt"
	"github.com/alnah/go-texgen/internal/render"
	"github.com/alnah/go-texgen/internal/runlog"
	"github.com/alnah/go-texgen/internal/slug"
	"github.com/alnah/go-texgen/internal/topics"
)

// Generator runs the per-record pipeline over a slice of the topic table.
// It is not safe for concurrent use; records are processed one at a time.
type Generator struct {
	cfg      config.Config
	baseDir  string
	client   llm.Client
	registry *prompt.Registry
	renderer render.Renderer
	log      *runlog.Logger
	ledger   Ledger
	progress io.Writer
	runID    string
	date     string // stamped into every entry header of the current run
	sleep    Sleeper
	now      func() time.Time
}

// NewGenerator builds a Generator from cfg. The config is copied; later
// changes to cfg do not affect the generator.
func NewGenerator(cfg *config.Config, opts ...Option) (*Generator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{
		cfg:      *cfg,
		log:      runlog.Nop(),
		progress: io.Discard,
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.client == nil {
		return nil, ErrNoClient
	}
	if g.runID == "" {
		g.runID = uuid.NewString()
	}

	if g.registry == nil || g.renderer == nil {
		loader, err := assets.NewAssetResolver(g.cfg.AssetsDir)
		if err != nil {
			return nil, fmt.Errorf("loading assets: %w", err)
		}
		if g.registry == nil {
			g.registry, err = prompt.NewDefaultRegistry(loader, g.cfg.DefaultPromptType, g.cfg.Templates, g.baseDir)
			if err != nil {
				return nil, err
			}
		}
		if g.renderer == nil {
			g.renderer, err = render.New(g.cfg.OutputFormat, loader)
			if err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// RunID returns the identifier written to every log line of this generator.
func (g *Generator) RunID() string {
	return g.runID
}

// Run processes the configured slice of records. Per-record failures are
// recorded and the run continues. The returned error is non-nil only when
// the run stopped early: an output collision under the error policy, or a
// canceled context. The summary is returned in every case.
func (g *Generator) Run(ctx context.Context, records []topics.Record) (*Summary, error) {
	start := g.now()
	lo, hi := config.Slice(len(records), g.cfg.StartIndex, g.cfg.MaxEntries)
	slice := records[lo:hi]

	summary := &Summary{}
	summary.RunID = g.runID
	g.log.Debug("run started", "run_id", g.runID, "records", len(slice), "start", lo, "end", hi)

	date, err := dateutil.Resolve(g.cfg.Date, start)
	if err != nil {
		g.log.Warn("entry date not resolved", "date", g.cfg.Date, "error", err)
	}
	g.date = date

	if err := os.MkdirAll(g.cfg.OutputDir, 0o750); err != nil {
		return summary, fmt.Errorf("creating output directory: %w%s", err, hints.ForOutputDirectory())
	}
	g.beginLedger(ctx, start, lo, hi)

	var runErr error
	for _, rec := range slice {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		out, err := g.process(ctx, rec)
		g.record(ctx, summary, out)
		if err != nil {
			runErr = err
			break
		}
	}

	summary.Total = g.now().Sub(start)
	g.log.Summary(summary.Summary)
	g.finishLedger(summary, runErr)
	if g.cfg.MetricsFile {
		path := filepath.Join(g.cfg.LogsDir, runlog.MetricsFile)
		if err := os.MkdirAll(g.cfg.LogsDir, 0o750); err != nil {
			g.log.Warn("metrics file not written", "error", err)
		} else if err := runlog.WriteMetrics(path, summary.Summary); err != nil {
			g.log.Warn("metrics file not written", "error", err)
		}
	}
	return summary, runErr
}

// process runs one record. The error is reserved for conditions that stop
// the whole run.
func (g *Generator) process(ctx context.Context, rec topics.Record) (Outcome, error) {
	out := Outcome{Record: rec, PromptType: rec.PromptType}
	fail := func(err error) Outcome {
		out.Status = StatusError
		out.Err = err
		return out
	}

	if strings.TrimSpace(rec.Subtopic) == "" {
		return fail(fmt.Errorf("%w in row %d (id %q)", ErrMissingSubtopic, rec.Row, rec.ID)), nil
	}

	name, err := slug.Filename(rec.Domain, rec.Topic, rec.Subtopic, g.renderer.Extension())
	if err != nil {
		return fail(err), nil
	}
	out.Path = filepath.Join(g.cfg.OutputDir, name)

	if fileutil.FileExists(out.Path) {
		switch g.cfg.OnCollision {
		case config.CollisionSkip:
			out.Status = StatusSkipped
			return out, nil
		case config.CollisionDedupe:
			out.Path = slug.DedupePath(out.Path)
		case config.CollisionOverwrite:
		default:
			err := fmt.Errorf("%w: %s%s", ErrOutputCollision, out.Path, hints.ForCollision())
			return fail(err), err
		}
	}

	tpl, err := g.registry.Resolve(rec.PromptType)
	if err != nil {
		return fail(err), nil
	}
	if tpl.FellBack {
		g.log.Warn("unknown prompt type, using default",
			"id", rec.ID, "requested", rec.PromptType, "default", tpl.Type)
	}
	out.PromptType = tpl.Type

	fields := rec.Fields()
	fields["prompt_type"] = tpl.Type
	text := prompt.Render(tpl.Text, fields)

	gen := g.generate(ctx, rec, text)
	out.Attempts, out.Latency = gen.attempts, gen.latency
	if gen.err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(ctxErr), ctxErr
		}
		return fail(gen.err), nil
	}

	// A canceled ctx still lets the current record finish; Run stops
	// before the next one.
	doc, err := g.renderer.Render(context.WithoutCancel(ctx), render.Meta{
		Title:      rec.Subtopic,
		ID:         rec.ID,
		Domain:     rec.Domain,
		Topic:      rec.Topic,
		PromptType: tpl.Type,
		Date:       g.date,
	}, gen.content)
	if err != nil {
		return fail(fmt.Errorf("rendering: %w", err)), nil
	}

	sum := sha256.Sum256([]byte(doc))
	out.Hash = hex.EncodeToString(sum[:])

	if err := g.write(out.Path, doc); err != nil {
		if errors.Is(err, ErrOutputCollision) {
			return fail(err), err
		}
		return fail(err), nil
	}

	out.Status = StatusSuccess
	return out, nil
}

// write creates the file. Under the error policy the file must not appear
// between the existence check and the write.
func (g *Generator) write(path, doc string) error {
	if g.cfg.OnCollision == config.CollisionError {
		if err := fileutil.WriteNew(path, []byte(doc), 0o644); err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("%w: %s%s", ErrOutputCollision, path, hints.ForCollision())
			}
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	}
	if err := fileutil.WriteFileAtomic(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// attemptResult is the outcome of one call to the model.
type attemptResult struct {
	content string
	err     error
	latency time.Duration
}

// generation is the outcome of the retry loop.
type generation struct {
	content  string
	err      error
	attempts int
	latency  time.Duration
}

func (g *Generator) attempt(ctx context.Context, text string) attemptResult {
	start := g.now()
	content, err := g.client.Generate(ctx, text)
	res := attemptResult{content: content, err: err, latency: g.now().Sub(start)}
	if err == nil && strings.TrimSpace(content) == "" {
		res.err = ErrEmptyResponse
	}
	return res
}

// generate calls the model up to cfg.Retries times, sleeping 2^attempt
// seconds between attempts.
func (g *Generator) generate(ctx context.Context, rec topics.Record, text string) generation {
	var gen generation
	var last error
	for attempt := 1; attempt <= g.cfg.Retries; attempt++ {
		res := g.attempt(ctx, text)
		gen.attempts = attempt
		gen.latency += res.latency
		if res.err == nil {
			gen.content = res.content
			return gen
		}
		last = res.err
		g.log.Warn("generation attempt failed",
			"id", rec.ID, "attempt", attempt, "of", g.cfg.Retries, "error", res.err)
		if ctx.Err() != nil || attempt == g.cfg.Retries {
			break
		}
		if err := g.sleep(ctx, backoff(attempt)); err != nil {
			last = err
			break
		}
	}
	gen.err = fmt.Errorf("%w after %d attempt(s): %w", ErrGenerationFailed, gen.attempts, last)
	return gen
}

// backoff returns 2^attempt seconds.
func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// record folds an outcome into the summary, the log, the ledger and the
// progress stream.
func (g *Generator) record(ctx context.Context, s *Summary, out Outcome) {
	s.Outcomes = append(s.Outcomes, out)
	s.Processed++
	if out.Attempts > 0 {
		s.Attempted++
		s.Latency += out.Latency
	}
	switch out.Status {
	case StatusSuccess:
		s.Succeeded++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}

	entry := runlog.Entry{
		ID:          out.Record.ID,
		Domain:      out.Record.Domain,
		Topic:       out.Record.Topic,
		Subtopic:    out.Record.Subtopic,
		PromptType:  out.PromptType,
		Filename:    filepath.Base(out.Path),
		Status:      string(out.Status),
		Attempts:    out.Attempts,
		Latency:     out.Latency,
		ContentHash: out.Hash,
	}
	if out.Path == "" {
		entry.Filename = ""
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}
	g.log.Entry(entry)

	if g.ledger != nil {
		err := g.ledger.AddEntry(context.WithoutCancel(ctx), ledger.Entry{
			RunID:       g.runID,
			RecordID:    entry.ID,
			PromptType:  entry.PromptType,
			Filename:    entry.Filename,
			Status:      entry.Status,
			Error:       entry.Error,
			Attempts:    entry.Attempts,
			Latency:     entry.Latency,
			ContentHash: entry.ContentHash,
			CreatedAt:   g.now(),
		})
		if err != nil {
			g.log.Warn("ledger entry not recorded", "error", err)
		}
	}

	switch out.Status {
	case StatusSuccess:
		fmt.Fprintf(g.progress, "Wrote %s\n", out.Path)
	case StatusSkipped:
		fmt.Fprintf(g.progress, "Skipped %s (exists)\n", out.Path)
	default:
		fmt.Fprintf(g.progress, "FAILED %s: %v\n", describe(out.Record), out.Err)
	}
}

func describe(rec topics.Record) string {
	if rec.Subtopic != "" {
		return rec.Subtopic
	}
	return fmt.Sprintf("row %d", rec.Row)
}

func (g *Generator) beginLedger(ctx context.Context, start time.Time, lo, hi int) {
	if g.ledger == nil {
		return
	}
	err := g.ledger.BeginRun(ctx, ledger.Run{
		ID:        g.runID,
		Kind:      ledger.KindGenerate,
		StartedAt: start,
		Note:      fmt.Sprintf("%s[%d:%d]", g.cfg.DataFile, lo, hi),
	})
	if err != nil {
		g.log.Warn("ledger run not recorded", "error", err)
		g.ledger = nil
	}
}

func (g *Generator) finishLedger(s *Summary, runErr error) {
	if g.ledger == nil {
		return
	}
	status := ledger.RunCompleted
	if runErr != nil {
		status = ledger.RunInterrupted
	}
	err := g.ledger.FinishRun(context.Background(), g.runID, status, g.now(), ledger.Counts{
		Processed: s.Processed,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
	})
	if err != nil {
		g.log.Warn("ledger run not finalized", "error", err)
	}
}
