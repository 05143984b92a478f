package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-texgen/internal/compile"
	"github.com/alnah/go-texgen/internal/config"
	"github.com/alnah/go-texgen/internal/fileutil"
	"github.com/alnah/go-texgen/internal/ledger"
	"github.com/alnah/go-texgen/internal/runlog"
	"github.com/alnah/go-texgen/internal/slug"
	"github.com/alnah/go-texgen/internal/topics"
	"github.com/alnah/go-texgen/internal/validate"
)

// runCompileCmd executes the compile command and returns an exit code.
func runCompileCmd(ctx context.Context, args []string, env *Environment) int {
	f, err := parseCompileFlags(args, env.Stderr)
	if err != nil {
		return parseFailed(err)
	}
	return compileWith(ctx, f, env)
}

// runValidateCmd executes the validate command and returns an exit code.
func runValidateCmd(ctx context.Context, args []string, env *Environment) int {
	f, err := parseValidateFlags(args, env.Stderr)
	if err != nil {
		return parseFailed(err)
	}
	return compileWith(ctx, f, env)
}

func compileWith(ctx context.Context, f *compileFlags, env *Environment) int {
	s, err := loadSession(f.common, env)
	if err != nil {
		return fail(env, err)
	}
	if err := s.cfg.Validate(); err != nil {
		return fail(env, err)
	}

	store := openLedger(s, diagnostics(f.common, env))
	if store != nil {
		defer store.Close()
	}
	return runCompileStage(ctx, s, f, env, store)
}

// engineFor picks the compiler. An explicit engine wins; otherwise the
// configured engine is used when it reads the configured output format,
// and the format's natural engine when it does not.
func engineFor(flagEngine string, cfg *config.Config) string {
	if flagEngine != "" {
		return flagEngine
	}
	natural := map[string]string{
		config.FormatLaTeX:    config.EnginePdfLaTeX,
		config.FormatMarkdown: config.EnginePandoc,
		config.FormatHTML:     config.EngineChrome,
	}
	if cfg.Compile.Engine != "" && natural[cfg.OutputFormat] == cfg.Compile.Engine {
		return cfg.Compile.Engine
	}
	if engine, ok := natural[cfg.OutputFormat]; ok {
		return engine
	}
	return cfg.Compile.Engine
}

// runCompileStage validates and compiles the outputs of s.
func runCompileStage(ctx context.Context, s *session, f *compileFlags, env *Environment, store *ledger.Store) int {
	timeout, err := s.cfg.Compile.FileTimeout()
	if err != nil {
		return fail(env, err)
	}
	c, err := compile.New(engineFor(f.engine, s.cfg), env.Runner, timeout)
	if err != nil {
		return fail(env, err)
	}

	runID := uuid.NewString()
	log, _, err := openRunLog(s, f.log, f.common, runID, runlog.CompileLog, env)
	if err != nil {
		return fail(env, err)
	}
	defer log.Close()

	file := f.file
	if file != "" && !fileutil.FileExists(file) {
		file = filepath.Join(s.cfg.OutputDir, file)
	}
	opts := compile.Options{
		SourceDir:    s.cfg.OutputDir,
		File:         file,
		PDFDir:       s.cfg.Compile.PDFDir,
		Force:        f.force,
		DryRun:       f.dryRun,
		ValidateOnly: f.validateOnly,
		Timeout:      timeout,
		Lookup:       promptTypeLookup(s.cfg, c.Extension(), log),
	}

	var progress io.Writer = env.Stdout
	if f.common.quiet || f.json {
		progress = io.Discard
	}
	hist := &compileHistory{store: store, runID: runID, now: env.Now, log: log}
	hist.begin(ctx, s.cfg.OutputDir)

	rec := compile.RecorderFunc(func(r compile.Result) {
		log.Record(r)
		hist.add(ctx, r)
		printCompileResult(progress, r)
	})
	report, runErr := compile.NewStage(c, opts, rec).Run(ctx)
	hist.finish(report, runErr)
	if runErr != nil {
		return fail(env, runErr)
	}

	if f.json {
		if err := report.WriteJSON(env.Stdout); err != nil {
			return fail(env, err)
		}
	} else if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "\nSucceeded: %d, Failed: %d, Skipped: %d\n",
			report.Count(compile.StatusSuccess),
			report.Count(compile.StatusFailure),
			report.Count(compile.StatusSkipped))
	}
	return reportExitCode(report)
}

// reportExitCode is ExitCompiler when a failure came from a missing
// compiler, ExitGeneral for other failures.
func reportExitCode(r *compile.Report) int {
	if !r.Failed() {
		return ExitSuccess
	}
	for _, res := range r.Results {
		if errors.Is(res.Err, compile.ErrCompilerUnavailable) {
			return ExitCompiler
		}
	}
	return ExitGeneral
}

func printCompileResult(w io.Writer, r compile.Result) {
	name := filepath.Base(r.File)
	switch r.Status {
	case compile.StatusSuccess:
		if r.Pages > 0 {
			fmt.Fprintf(w, "Compiled %s (%d pages)\n", name, r.Pages)
		} else {
			fmt.Fprintf(w, "Valid %s\n", name)
		}
	case compile.StatusSkipped:
		fmt.Fprintf(w, "Skipped %s (%s)\n", name, r.Reason)
	case compile.StatusFailure:
		fmt.Fprintf(w, "FAILED %s: %s\n", name, r.Reason)
		if r.Log != "" {
			fmt.Fprintf(w, "  log: %s\n", r.Log)
		}
	}
}

// promptTypeLookup maps output file names back to the prompt type of the
// topic row that produced them. Entries written before the metadata header
// existed rely on it. A missing or unreadable topics file disables it.
func promptTypeLookup(cfg *config.Config, ext string, log *runlog.Logger) func(string) (string, bool) {
	records, err := topics.Load(cfg.DataFile)
	if err != nil {
		log.Debug("prompt type lookup disabled", "data_file", cfg.DataFile, "error", err)
		return nil
	}

	// Generation falls back to the default type for unknown rows; so do we.
	known := validate.Types()
	types := make(map[string]string, len(records))
	for _, rec := range records {
		name, err := slug.Filename(rec.Domain, rec.Topic, rec.Subtopic, ext)
		if err != nil {
			continue
		}
		pt := rec.PromptType
		if !slices.Contains(known, pt) {
			pt = cfg.DefaultPromptType
		}
		types[name] = pt
	}
	return func(file string) (string, bool) {
		pt, ok := types[filepath.Base(file)]
		return pt, ok
	}
}

// compileHistory mirrors a compile run into the ledger. Failures are
// warnings.
type compileHistory struct {
	store *ledger.Store
	runID string
	now   func() time.Time
	log   *runlog.Logger
}

func (h *compileHistory) begin(ctx context.Context, dir string) {
	if h.store == nil {
		return
	}
	err := h.store.BeginRun(ctx, ledger.Run{
		ID:        h.runID,
		Kind:      ledger.KindCompile,
		StartedAt: h.now(),
		Note:      dir,
	})
	if err != nil {
		h.log.Warn("ledger run not recorded", "error", err)
		h.store = nil
	}
}

func (h *compileHistory) add(ctx context.Context, r compile.Result) {
	if h.store == nil {
		return
	}
	e := ledger.Entry{
		RunID:      h.runID,
		PromptType: r.PromptType,
		Filename:   filepath.Base(r.File),
		Status:     string(r.Status),
		Latency:    r.Duration,
		CreatedAt:  h.now(),
	}
	if r.Status == compile.StatusFailure {
		e.Error = r.Reason
	}
	err := h.store.AddEntry(ctx, e)
	if err != nil {
		h.log.Warn("ledger entry not recorded", "file", r.File, "error", err)
	}
}

func (h *compileHistory) finish(r *compile.Report, runErr error) {
	if h.store == nil {
		return
	}
	status := ledger.RunCompleted
	if runErr != nil {
		status = ledger.RunInterrupted
	}
	var c ledger.Counts
	if r != nil {
		c = ledger.Counts{
			Processed: len(r.Results),
			Succeeded: r.Count(compile.StatusSuccess),
			Failed:    r.Count(compile.StatusFailure),
			Skipped:   r.Count(compile.StatusSkipped),
		}
	}
	if err := h.store.FinishRun(context.Background(), h.runID, status, h.now(), c); err != nil {
		h.log.Warn("ledger run not finalized", "error", err)
	}
}
