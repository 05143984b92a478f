package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-texgen/internal/config"
	"github.com/alnah/go-texgen/internal/hints"
	"github.com/alnah/go-texgen/internal/ledger"
	"github.com/alnah/go-texgen/internal/llm"
	"github.com/alnah/go-texgen/internal/runlog"
)

// errLedgerDisabled is returned by commands that need the run ledger when
// the config leaves it empty.
var errLedgerDisabled = errors.New("ledger is disabled")

// session is the resolved configuration shared by every command.
type session struct {
	cfg  *config.Config
	path string
	// baseDir anchors relative paths found in the config file.
	baseDir string
	env     *envConfig
}

// loadSession resolves the config file, creating it on first use, and
// applies environment overrides.
func loadSession(common commonFlags, env *Environment) (*session, error) {
	envCfg := loadEnvConfig(env.Getenv)
	if !common.quiet {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	path := common.config
	if path == "" {
		path = envCfg.ConfigPath
	}
	if path == "" {
		path = config.DefaultPath
	}

	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigField) {
			return nil, fmt.Errorf("%w%s", err, hints.ForConfigField())
		}
		return nil, err
	}
	if created && !common.quiet {
		fmt.Fprintf(env.Stderr, "Created default config at %s%s\n", path, hints.ForConfigCreated(path))
	}

	s := &session{cfg: cfg, path: path, baseDir: filepath.Dir(path), env: envCfg}
	s.resolvePaths()
	applyEnvConfig(envCfg, cfg)
	return s, nil
}

// resolvePaths makes the file's relative paths relative to its directory.
// Paths from flags and the environment stay relative to the working
// directory.
func (s *session) resolvePaths() {
	join := func(p *string) {
		if *p == "" || filepath.IsAbs(*p) || s.baseDir == "." {
			return
		}
		*p = filepath.Join(s.baseDir, *p)
	}
	join(&s.cfg.DataFile)
	join(&s.cfg.OutputDir)
	join(&s.cfg.LogsDir)
	join(&s.cfg.AssetsDir)
	join(&s.cfg.Compile.PDFDir)
	if s.cfg.Ledger != ":memory:" {
		join(&s.cfg.Ledger)
	}
}

// llmSettings builds backend settings from the config and credentials.
func (s *session) llmSettings() (llm.Settings, error) {
	timeout, err := s.cfg.LLM.RequestTimeout()
	if err != nil {
		return llm.Settings{}, err
	}
	return llm.Settings{
		Provider: s.cfg.LLM.Provider,
		Model:    s.cfg.LLM.Model,
		APIKey:   s.env.APIKey,
		BaseURL:  s.cfg.LLM.BaseURL,
		Timeout:  timeout,
	}, nil
}

// openRunLog opens the run log named name under logs_dir. Diagnostics go
// to stderr unless quiet.
func openRunLog(s *session, lf logFlags, common commonFlags, runID, name string, env *Environment) (*runlog.Logger, string, error) {
	opts := runlog.Options{
		Format:  lf.format,
		RunID:   runID,
		Verbose: common.verbose,
	}
	if !common.quiet {
		opts.Diagnostics = env.Stderr
	}
	if lf.enabled {
		opts.Path = filepath.Join(s.cfg.LogsDir, name)
	}
	l, err := runlog.Open(opts)
	if err != nil {
		return nil, "", err
	}
	return l, opts.Path, nil
}

// diagnostics returns a logger that only writes warnings to stderr.
func diagnostics(common commonFlags, env *Environment) *runlog.Logger {
	if common.quiet {
		return runlog.Nop()
	}
	l, err := runlog.Open(runlog.Options{Diagnostics: env.Stderr, Verbose: common.verbose})
	if err != nil {
		return runlog.Nop()
	}
	return l
}

// openLedger opens the configured ledger. A failure is a warning: the run
// proceeds without history.
func openLedger(s *session, log *runlog.Logger) *ledger.Store {
	if s.cfg.Ledger == "" {
		return nil
	}
	if s.cfg.Ledger != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(s.cfg.Ledger), 0o750); err != nil {
			log.Warn("ledger unavailable", "path", s.cfg.Ledger, "error", err)
			return nil
		}
	}
	store, err := ledger.Open(s.cfg.Ledger)
	if err != nil {
		log.Warn("ledger unavailable", "path", s.cfg.Ledger, "error", err)
		return nil
	}
	return store
}

// parseFailed maps a flag parse error to an exit code. pflag has already
// printed the error and usage.
func parseFailed(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	return ExitUsage
}

// fail prints err and returns its exit code.
func fail(env *Environment, err error) int {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(env.Stderr, "interrupted")
		return ExitGeneral
	}
	fmt.Fprintf(env.Stderr, "error: %v\n", err)
	return exitCodeFor(err)
}
