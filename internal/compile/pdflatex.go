package compile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alnah/go-texgen/internal/fileutil"
	"github.com/alnah/go-texgen/internal/hints"
)

// auxExtensions are the pdflatex by-products removed after a successful run.
var auxExtensions = []string{"aux", "log", "out"}

// PdfLaTeX compiles .tex sources with the pdflatex CLI.
type PdfLaTeX struct {
	Runner CommandRunner
	Binary string
}

func (c *PdfLaTeX) Name() string      { return EnginePdfLaTeX }
func (c *PdfLaTeX) Extension() string { return "tex" }

// Compile runs pdflatex in non-interactive mode, writing into outDir.
// By-products are removed on success and kept on failure for inspection.
func (c *PdfLaTeX) Compile(ctx context.Context, path, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return "", fmt.Errorf("creating pdf directory: %w", err)
	}

	stdout, stderr, err := c.Runner.Run(ctx, c.Binary,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory", outDir,
		path,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s not found%s", ErrCompilerUnavailable, c.Binary, hints.ForCompilerMissing(EnginePdfLaTeX))
		}
		return "", fmt.Errorf("%w: %s", ErrCompilerFailed, texFailureReason(stdout, stderr))
	}

	pdfPath := filepath.Join(outDir, fileutil.ReplaceExt(filepath.Base(path), "pdf"))
	fileutil.RemoveSiblings(pdfPath, auxExtensions...)
	return pdfPath, nil
}

// texFailureReason extracts the first TeX error ("! ...") and the line after
// it from the transcript, falling back to stderr.
func texFailureReason(stdout, stderr string) string {
	sc := bufio.NewScanner(strings.NewReader(stdout))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "!") {
			continue
		}
		reason := strings.TrimSpace(strings.TrimPrefix(line, "!"))
		if sc.Scan() {
			if next := strings.TrimSpace(sc.Text()); next != "" {
				reason += " (" + next + ")"
			}
		}
		return reason
	}
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	return "pdflatex failed"
}
