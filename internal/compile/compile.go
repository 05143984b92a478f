// Package compile turns generated entries into PDFs through external tools
// and reports per-file outcomes.
package compile

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for compilation.
var (
	ErrCompilerUnavailable = errors.New("compiler unavailable")
	ErrCompilerFailed      = errors.New("compilation failed")
	ErrInvalidPDF          = errors.New("compiler produced an invalid PDF")
	ErrUnknownEngine       = errors.New("unknown compile engine")
)

// Engines.
const (
	EnginePdfLaTeX = "pdflatex"
	EnginePandoc   = "pandoc"
	EngineChrome   = "chrome"
)

// Compiler produces a PDF for one source file and returns its path.
// Implementations holding resources also implement io.Closer.
type Compiler interface {
	Name() string
	// Extension is the source file extension the compiler accepts.
	Extension() string
	Compile(ctx context.Context, path, outDir string) (string, error)
}

// New returns the compiler for engine. runner is used by the subprocess
// based engines; nil selects ExecRunner.
func New(engine string, runner CommandRunner, timeout time.Duration) (Compiler, error) {
	if runner == nil {
		runner = &ExecRunner{}
	}
	switch engine {
	case EnginePdfLaTeX, "":
		return &PdfLaTeX{Runner: runner, Binary: EnginePdfLaTeX}, nil
	case EnginePandoc:
		return &Pandoc{Runner: runner, Binary: EnginePandoc}, nil
	case EngineChrome:
		return NewChrome(timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}
