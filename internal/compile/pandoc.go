package compile

import (
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

// Pandoc compiles Markdown sources (with YAML front matter) to PDF.
type Pandoc struct {
	Runner CommandRunner
	Binary string
}

func (c *Pandoc) Name() string      { return EnginePandoc }
func (c *Pandoc) Extension() string { return "md" }

// Compile uses -f markdown-fancy_lists so letter markers such as "A)" stay
// literal instead of becoming list items.
func (c *Pandoc) Compile(ctx context.Context, path, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return "", fmt.Errorf("creating pdf directory: %w", err)
	}
	pdfPath := filepath.Join(outDir, fileutil.ReplaceExt(filepath.Base(path), "pdf"))

	_, stderr, err := c.Runner.Run(ctx, c.Binary,
		path,
		"-f", "markdown-fancy_lists",
		"--standalone",
		"-o", pdfPath,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s not found%s", ErrCompilerUnavailable, c.Binary, hints.ForCompilerMissing(EnginePandoc))
		}
		reason := strings.TrimSpace(stderr)
		if reason == "" {
			reason = err.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrCompilerFailed, reason)
	}
	return pdfPath, nil
}
