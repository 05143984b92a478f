package main

import (
	"errors"
	"os"

	"github.com/alnah/go-texgen/internal/assets"
	"github.com/alnah/go-texgen/internal/compile"
	"github.com/alnah/go-texgen/internal/config"
	"github.com/alnah/go-texgen/internal/llm"
	"github.com/alnah/go-texgen/internal/render"
	"github.com/alnah/go-texgen/internal/runlog"
	"github.com/alnah/go-texgen/internal/topics"
)

// Exit codes for the texgen CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Every record or file succeeded or was skipped
	ExitGeneral  = 1 // Some records or files failed, or an unexpected error
	ExitUsage    = 2 // Invalid flags, config, topics table or credentials
	ExitIO       = 3 // File not found, permission denied
	ExitCompiler = 4 // PDF compiler or browser unavailable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, compile.ErrCompilerUnavailable) ||
		errors.Is(err, compile.ErrUnknownEngine) {
		return ExitCompiler
	}

	if errors.Is(err, config.ErrConfigMissing) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigField) ||
		errors.Is(err, topics.ErrEmptyTable) ||
		errors.Is(err, topics.ErrMissingColumn) ||
		errors.Is(err, llm.ErrMissingAPIKey) ||
		errors.Is(err, llm.ErrMissingModel) ||
		errors.Is(err, llm.ErrUnknownProvider) ||
		errors.Is(err, render.ErrUnknownFormat) ||
		errors.Is(err, runlog.ErrUnknownFormat) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, errLedgerDisabled) {
		return ExitUsage
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	return ExitGeneral
}
