package compile

// Notes:
// - Compilers are exercised through fakeRunner; no TeX, pandoc or browser
//   is started. Chrome is only checked for construction and idle Close.
// - ExecRunner is only tested with a binary that cannot exist:
//   exec.ErrNotFound must surface unchanged so compilers can map it.

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestNew - Engine Selection
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		engine  string
		wantExt string
		wantErr error
	}{
		{"default is pdflatex", "", "tex", nil},
		{"pdflatex", EnginePdfLaTeX, "tex", nil},
		{"pandoc", EnginePandoc, "md", nil},
		{"chrome", EngineChrome, "html", nil},
		{"unknown", "lualatex", "", ErrUnknownEngine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(tt.engine, &fakeRunner{}, time.Second)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Extension() != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", c.Extension(), tt.wantExt)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPdfLaTeX - Command Line, Cleanup, Failures
// ---------------------------------------------------------------------------

func TestPdfLaTeX_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "calculus-limits-intro.tex")
	writeFile(t, src, definitionTex)
	outDir := filepath.Join(dir, "pdf")

	runner := &fakeRunner{}
	c := &PdfLaTeX{Runner: runner, Binary: "pdflatex"}

	pdfPath, err := c.Compile(context.Background(), src, outDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(outDir, "calculus-limits-intro.pdf"); pdfPath != want {
		t.Errorf("pdf path = %q, want %q", pdfPath, want)
	}

	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	args := strings.Join(calls[0].Args, " ")
	for _, want := range []string{"-interaction=nonstopmode", "-output-directory " + outDir, src} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}

	for _, ext := range []string{".aux", ".log", ".out"} {
		if _, err := os.Stat(filepath.Join(outDir, "calculus-limits-intro"+ext)); !os.IsNotExist(err) {
			t.Errorf("expected %s by-product to be removed", ext)
		}
	}
}

func TestPdfLaTeX_NotInstalled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.tex")
	writeFile(t, src, definitionTex)

	c := &PdfLaTeX{Runner: &fakeRunner{err: exec.ErrNotFound}, Binary: "pdflatex"}

	_, err := c.Compile(context.Background(), src, dir)
	if !errors.Is(err, ErrCompilerUnavailable) {
		t.Fatalf("expected ErrCompilerUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "Install TeX Live") {
		t.Errorf("expected install hint, got %q", err.Error())
	}
}

func TestPdfLaTeX_FailureReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stdout string
		stderr string
		want   string
	}{
		{
			name:   "tex error line",
			stdout: "This is pdfTeX\n! Undefined control sequence.\nl.12 \\foo\n",
			want:   "Undefined control sequence. (l.12 \\foo)",
		},
		{
			name:   "stderr fallback",
			stderr: "fatal: cannot open file\n",
			want:   "fatal: cannot open file",
		},
		{
			name: "generic",
			want: "pdflatex failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			src := filepath.Join(dir, "a.tex")
			writeFile(t, src, definitionTex)
			runner := &fakeRunner{stdout: tt.stdout, stderr: tt.stderr, err: errors.New("exit status 1")}
			c := &PdfLaTeX{Runner: runner, Binary: "pdflatex"}

			_, err := c.Compile(context.Background(), src, dir)
			if !errors.Is(err, ErrCompilerFailed) {
				t.Fatalf("expected ErrCompilerFailed, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestPdfLaTeX_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.tex")
	writeFile(t, src, definitionTex)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &PdfLaTeX{Runner: &fakeRunner{}, Binary: "pdflatex"}
	if _, err := c.Compile(ctx, src, dir); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestPandoc - Command Line and Missing Binary
// ---------------------------------------------------------------------------

func TestPandoc(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "entry.md")
	writeFile(t, src, "---\ntitle: x\n---\n# x\n")
	outDir := filepath.Join(dir, "pdf")

	runner := &fakeRunner{}
	c := &Pandoc{Runner: runner, Binary: "pandoc"}

	pdfPath, err := c.Compile(context.Background(), src, outDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pdfPath != filepath.Join(outDir, "entry.pdf") {
		t.Errorf("unexpected pdf path %q", pdfPath)
	}
	args := strings.Join(runner.Calls()[0].Args, " ")
	if !strings.Contains(args, "markdown-fancy_lists") {
		t.Errorf("expected fancy_lists disabled, got %q", args)
	}
}

func TestPandoc_NotInstalled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "entry.md")
	writeFile(t, src, "# x\n")

	c := &Pandoc{Runner: &fakeRunner{err: exec.ErrNotFound}, Binary: "pandoc"}
	_, err := c.Compile(context.Background(), src, dir)
	if !errors.Is(err, ErrCompilerUnavailable) {
		t.Fatalf("expected ErrCompilerUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "Install pandoc") {
		t.Errorf("expected install hint, got %q", err.Error())
	}
}

// ---------------------------------------------------------------------------
// TestChrome - Idle Lifecycle
// ---------------------------------------------------------------------------

func TestChrome_CloseWithoutBrowser(t *testing.T) {
	t.Parallel()

	c := NewChrome(time.Second)
	if err := c.Close(); err != nil {
		t.Errorf("Close() on idle compiler: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close(): %v", err)
	}
}

func TestChrome_CanceledBeforeLaunch(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewChrome(time.Second)
	defer c.Close()
	if _, err := c.Compile(ctx, "x.html", t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestExecRunner - Missing Binary and Output Capture
// ---------------------------------------------------------------------------

func TestExecRunner_NotFound(t *testing.T) {
	t.Parallel()

	r := &ExecRunner{}
	_, _, err := r.Run(context.Background(), "texgen-definitely-not-a-binary")
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("expected exec.ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestPageCount - PDF Verification
// ---------------------------------------------------------------------------

func TestPageCount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	if err := os.WriteFile(good, minimalPDF(), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.pdf")
	writeFile(t, bad, "not a pdf at all")

	n, err := PageCount(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("PageCount = %d, want 1", n)
	}

	if _, err := PageCount(bad); !errors.Is(err, ErrInvalidPDF) {
		t.Errorf("expected ErrInvalidPDF, got %v", err)
	}
	if _, err := PageCount(filepath.Join(dir, "missing.pdf")); !errors.Is(err, ErrInvalidPDF) {
		t.Errorf("expected ErrInvalidPDF for missing file, got %v", err)
	}
}
