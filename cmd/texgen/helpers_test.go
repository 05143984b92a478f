package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-texgen/internal/config"
	"github.com/alnah/go-texgen/internal/llm"
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

// pdfRunner stands in for pdflatex: it writes a PDF into the
// -output-directory, or fails with err.
type pdfRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *pdfRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if r.err != nil {
		return "", "", r.err
	}
	var dir string
	for i, a := range args {
		if a == "-output-directory" && i+1 < len(args) {
			dir = args[i+1]
		}
	}
	if dir == "" || len(args) == 0 {
		return "pdfTeX 3.141592653", "", nil
	}
	src := filepath.Base(args[len(args)-1])
	out := filepath.Join(dir, strings.TrimSuffix(src, filepath.Ext(src))+".pdf")
	return "", "", os.WriteFile(out, minimalPDF(), 0o644)
}

func (r *pdfRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// testEnv returns an Environment with captured output, the given
// variables, the mock model backend and a fake compiler.
func testEnv(vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer, *pdfRunner) {
	var stdout, stderr bytes.Buffer
	runner := &pdfRunner{}
	env := &Environment{
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			var out []string
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			sort.Strings(out)
			return out
		},
		NewClient: llm.New,
		Runner:    runner,
		LookPath: func(name string) (string, error) {
			return "", fmt.Errorf("%s: not found", name)
		},
	}
	return env, &stdout, &stderr, runner
}

const topicsCSV = `id,domain,topic,subtopic,prompt_type
1,Mathematics,Algebra,Group Theory,definition
2,Mathematics,Analysis,Limits,definition
`

// project writes a config and topic table to a temp directory and returns
// the config path. mutate may adjust the defaults before writing.
func project(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.DataFile = "topics.csv"
	cfg.OutputDir = "out"
	cfg.LogsDir = "logs"
	cfg.Compile.PDFDir = "pdf"
	cfg.LLM.Provider = llm.ProviderMock
	cfg.MetricsFile = false
	if mutate != nil {
		mutate(cfg)
	}

	path := filepath.Join(dir, "texgen.yaml")
	if err := config.Write(path, cfg); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "topics.csv"), []byte(topicsCSV), 0o644); err != nil {
		t.Fatalf("writing topics: %v", err)
	}
	return path
}

// listDir returns the sorted file names in dir.
func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
