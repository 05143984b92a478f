package compile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// minimalPDF builds a one-page PDF with a correct cross-reference table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// call records one CommandRunner invocation.
type call struct {
	Name string
	Args []string
}

// fakeRunner emulates pdflatex/pandoc: on success it writes a PDF to the
// path implied by the arguments.
type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	stdout string
	stderr string
	err    error
	// pdf overrides the bytes written on success.
	pdf []byte
	// failFor makes the run fail when the source path contains this string.
	failFor string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Name: name, Args: args})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	out := outputPath(args)
	if f.err != nil || (f.failFor != "" && strings.Contains(strings.Join(args, " "), f.failFor)) {
		if out != "" {
			_ = os.WriteFile(strings.TrimSuffix(out, ".pdf")+".log", []byte("transcript"), 0o644)
		}
		err := f.err
		if err == nil {
			err = fmt.Errorf("exit status 1")
		}
		return f.stdout, f.stderr, err
	}
	if out == "" {
		return f.stdout, f.stderr, nil
	}
	data := f.pdf
	if data == nil {
		data = minimalPDF()
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", "", err
	}
	for _, ext := range []string{".aux", ".log", ".out"} {
		_ = os.WriteFile(strings.TrimSuffix(out, ".pdf")+ext, []byte("x"), 0o644)
	}
	return f.stdout, f.stderr, nil
}

func (f *fakeRunner) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

// outputPath derives the PDF the real tool would write from its arguments.
func outputPath(args []string) string {
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			return args[i+1]
		}
	}
	var dir, src string
	for i, a := range args {
		if a == "-output-directory" && i+1 < len(args) {
			dir = args[i+1]
		}
	}
	if len(args) > 0 {
		src = args[len(args)-1]
	}
	if dir == "" || src == "" {
		return ""
	}
	base := filepath.Base(src)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

const definitionTex = `% Limits
% ID: 1
% Domain: Calculus
% Topic: Limits
% Prompt Type: definition
\documentclass[12pt]{article}
\begin{document}
\section*{Limits}
\subsection*{Definition}
text
\subsection*{Worked Example}
text
\subsection*{Common Pitfalls}
text
\end{document}
`

const abstractTexMissingSections = `% Groups
% Prompt Type: abstract
\documentclass{article}
\begin{document}
\section*{1. Intuition}
\end{document}
`
