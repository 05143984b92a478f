package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-texgen"
	"github.com/alnah/go-texgen/internal/hints"
	"github.com/alnah/go-texgen/internal/llm"
	"github.com/alnah/go-texgen/internal/runlog"
	"github.com/alnah/go-texgen/internal/topics"
)

// runGenerateCmd executes the generate command and returns an exit code.
func runGenerateCmd(ctx context.Context, args []string, env *Environment) int {
	f, err := parseGenerateFlags(args, env.Stderr)
	if err != nil {
		return parseFailed(err)
	}

	s, err := loadSession(f.common, env)
	if err != nil {
		return fail(env, err)
	}
	f.apply(s.cfg)
	if err := s.cfg.Validate(); err != nil {
		return fail(env, err)
	}

	records, err := topics.Load(s.cfg.DataFile)
	if err != nil {
		return fail(env, fmt.Errorf("loading topics: %w", err))
	}

	settings, err := s.llmSettings()
	if err != nil {
		return fail(env, err)
	}
	client, err := env.NewClient(settings)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			err = fmt.Errorf("%w%s", err, hints.ForAPIKey())
		}
		return fail(env, err)
	}

	runID := uuid.NewString()
	log, logPath, err := openRunLog(s, f.log, f.common, runID, runlog.GenerationLog, env)
	if err != nil {
		return fail(env, err)
	}
	defer log.Close()

	store := openLedger(s, log)
	if store != nil {
		defer store.Close()
	}

	opts := []texgen.Option{
		texgen.WithClient(client),
		texgen.WithLogger(log),
		texgen.WithRunID(runID),
		texgen.WithBaseDir(s.baseDir),
		texgen.WithClock(env.Now),
	}
	if !f.common.quiet {
		opts = append(opts, texgen.WithProgress(env.Stdout))
	}
	if store != nil {
		opts = append(opts, texgen.WithLedger(store))
	}

	gen, err := texgen.NewGenerator(s.cfg, opts...)
	if err != nil {
		return fail(env, err)
	}

	summary, runErr := gen.Run(ctx, records)
	if !f.common.quiet {
		printGenerateSummary(env.Stdout, summary, logPath)
	}
	if runErr != nil {
		return fail(env, runErr)
	}

	code := ExitSuccess
	if summary.Failed > 0 {
		code = ExitGeneral
	}
	if f.compile {
		cf := &compileFlags{common: f.common, log: f.log}
		if c := runCompileStage(ctx, s, cf, env, store); c != ExitSuccess {
			code = c
		}
	}
	return code
}

// printGenerateSummary writes the end-of-run counters.
func printGenerateSummary(w io.Writer, s *texgen.Summary, logPath string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run:       %s\n", s.RunID)
	fmt.Fprintf(w, "Processed: %d\n", s.Processed)
	fmt.Fprintf(w, "Succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(w, "Failed:    %d\n", s.Failed)
	fmt.Fprintf(w, "Skipped:   %d\n", s.Skipped)
	if s.Attempted > 0 {
		fmt.Fprintf(w, "Success:   %.1f%%\n", s.SuccessRate()*100)
		fmt.Fprintf(w, "Latency:   %s avg\n", s.AverageLatency().Round(time.Millisecond))
	}
	if logPath != "" {
		fmt.Fprintf(w, "Log:       %s\n", logPath)
	}
}
