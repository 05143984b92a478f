package compile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStage(t *testing.T, runner *fakeRunner, opts Options) (*Stage, *[]Result) {
	t.Helper()
	var recorded []Result
	c := &PdfLaTeX{Runner: runner, Binary: "pdflatex"}
	return NewStage(c, opts, RecorderFunc(func(r Result) { recorded = append(recorded, r) })), &recorded
}

// ---------------------------------------------------------------------------
// TestStage_Sources - Listing
// ---------------------------------------------------------------------------

func TestStage_Sources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.tex"), definitionTex)
	writeFile(t, filepath.Join(dir, "a.tex"), definitionTex)
	writeFile(t, filepath.Join(dir, "notes.md"), "# x")
	if err := os.Mkdir(filepath.Join(dir, "sub.tex"), 0o755); err != nil {
		t.Fatal(err)
	}

	s, _ := newTestStage(t, &fakeRunner{}, Options{SourceDir: dir})
	files, err := s.Sources()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{filepath.Join(dir, "a.tex"), filepath.Join(dir, "b.tex")}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("Sources() = %v, want %v", files, want)
	}
}

func TestStage_SourcesSingleFileMissing(t *testing.T) {
	t.Parallel()

	s, _ := newTestStage(t, &fakeRunner{}, Options{File: filepath.Join(t.TempDir(), "nope.tex")})
	if _, err := s.Sources(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestStage_Run - Outcomes per File
// ---------------------------------------------------------------------------

func TestStage_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "output")
	pdfDir := filepath.Join(dir, "pdf")
	writeFile(t, filepath.Join(src, "good.tex"), definitionTex)
	writeFile(t, filepath.Join(src, "empty.tex"), "   \n")
	writeFile(t, filepath.Join(src, "schema.tex"), abstractTexMissingSections)
	writeFile(t, filepath.Join(src, "done.tex"), definitionTex)
	writeFile(t, filepath.Join(pdfDir, "done.pdf"), "old")

	runner := &fakeRunner{}
	s, recorded := newTestStage(t, runner, Options{SourceDir: src, PDFDir: pdfDir})

	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byName := map[string]Result{}
	for _, r := range report.Results {
		byName[filepath.Base(r.File)] = r
	}

	tests := []struct {
		file   string
		status Status
		reason string
	}{
		{"good.tex", StatusSuccess, ""},
		{"empty.tex", StatusFailure, "empty file"},
		{"schema.tex", StatusFailure, "validation: missing section 2., section 3., section 4."},
		{"done.tex", StatusSkipped, ReasonExists},
	}
	for _, tt := range tests {
		got, ok := byName[tt.file]
		if !ok {
			t.Errorf("%s: no result", tt.file)
			continue
		}
		if got.Status != tt.status {
			t.Errorf("%s: status = %q, want %q (reason %q)", tt.file, got.Status, tt.status, got.Reason)
		}
		if tt.reason != "" && got.Reason != tt.reason {
			t.Errorf("%s: reason = %q, want %q", tt.file, got.Reason, tt.reason)
		}
	}

	if good := byName["good.tex"]; good.Pages != 1 || good.PromptType != "definition" {
		t.Errorf("good.tex: pages=%d type=%q", good.Pages, good.PromptType)
	}
	if len(runner.Calls()) != 1 {
		t.Errorf("expected exactly one compiler call, got %d", len(runner.Calls()))
	}
	if len(*recorded) != len(report.Results) {
		t.Errorf("recorder saw %d results, report has %d", len(*recorded), len(report.Results))
	}
	if !report.Failed() {
		t.Error("expected Failed() to be true")
	}
}

func TestStage_Run_ForceAndDryRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		force     bool
		dryRun    bool
		status    Status
		wantCalls int
	}{
		{"existing pdf skipped", false, false, StatusSkipped, 0},
		{"force recompiles", true, false, StatusSuccess, 1},
		{"dry run compiles nothing", true, true, StatusSkipped, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			file := filepath.Join(dir, "entry.tex")
			writeFile(t, file, definitionTex)
			writeFile(t, filepath.Join(dir, "pdf", "entry.pdf"), "old")

			runner := &fakeRunner{}
			s, _ := newTestStage(t, runner, Options{
				File:   file,
				PDFDir: filepath.Join(dir, "pdf"),
				Force:  tt.force,
				DryRun: tt.dryRun,
			})
			report, err := s.Run(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := report.Results[0].Status; got != tt.status {
				t.Errorf("status = %q, want %q", got, tt.status)
			}
			if len(runner.Calls()) != tt.wantCalls {
				t.Errorf("calls = %d, want %d", len(runner.Calls()), tt.wantCalls)
			}
		})
	}
}

func TestStage_Run_ValidateOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "entry.tex"), definitionTex)

	runner := &fakeRunner{}
	s, _ := newTestStage(t, runner, Options{SourceDir: dir, PDFDir: filepath.Join(dir, "pdf"), ValidateOnly: true})
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Count(StatusSuccess) != 1 || len(runner.Calls()) != 0 {
		t.Errorf("expected one valid file and no compilation, got %+v", report.Results)
	}
}

func TestStage_Run_LookupFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// No metadata header: the type comes from Lookup.
	writeFile(t, filepath.Join(dir, "entry.tex"), "\\section*{1. Intuition}\n")

	s, _ := newTestStage(t, &fakeRunner{}, Options{
		SourceDir:    dir,
		ValidateOnly: true,
		Lookup: func(string) (string, bool) {
			return "abstract", true
		},
	})
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := report.Results[0]
	if got.Status != StatusFailure || got.PromptType != "abstract" {
		t.Errorf("expected abstract schema failure, got %+v", got)
	}
}

func TestStage_Run_CompilerFailureKeepsLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.tex"), definitionTex)
	writeFile(t, filepath.Join(dir, "good.tex"), definitionTex)
	pdfDir := filepath.Join(dir, "pdf")

	runner := &fakeRunner{failFor: "bad.tex", stdout: "! Missing $ inserted.\n"}
	s, _ := newTestStage(t, runner, Options{SourceDir: dir, PDFDir: pdfDir})
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := report.Results[0]
	if bad.Status != StatusFailure {
		t.Fatalf("expected failure, got %+v", bad)
	}
	if bad.Log != filepath.Join(pdfDir, "bad.log") {
		t.Errorf("log = %q", bad.Log)
	}
	if report.Results[1].Status != StatusSuccess {
		t.Errorf("later files must still compile, got %+v", report.Results[1])
	}
}

func TestStage_Run_CompilerUnavailableFailsEachFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.tex"), definitionTex)
	writeFile(t, filepath.Join(dir, "b.tex"), definitionTex)

	s, _ := newTestStage(t, &fakeRunner{err: exec.ErrNotFound}, Options{SourceDir: dir, PDFDir: filepath.Join(dir, "pdf")})
	report, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Results) != 2 || report.Count(StatusFailure) != 2 {
		t.Fatalf("expected both files to fail, got %+v", report.Results)
	}
	if !strings.Contains(report.Results[1].Reason, "Install TeX Live") {
		t.Errorf("expected install hint in reason, got %q", report.Results[1].Reason)
	}
}

func TestStage_Run_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.tex"), definitionTex)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _ := newTestStage(t, &fakeRunner{}, Options{SourceDir: dir})
	report, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Results) != 0 {
		t.Errorf("expected no results, got %d", len(report.Results))
	}
}

// ---------------------------------------------------------------------------
// TestReport_WriteJSON - Summary Shape
// ---------------------------------------------------------------------------

func TestReport_WriteJSON(t *testing.T) {
	t.Parallel()

	report := &Report{Results: []Result{
		{File: "/out/a.tex", Status: StatusSuccess},
		{File: "/out/b.tex", Status: StatusFailure, Reason: "boom", Log: "/pdf/b.log"},
		{File: "/out/c.tex", Status: StatusSkipped, Reason: ReasonExists},
	}}

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Success []string `json:"success"`
		Failure []struct {
			File   string `json:"file"`
			Reason string `json:"reason"`
			Log    string `json:"log"`
		} `json:"failure"`
		Skipped []struct {
			File   string `json:"file"`
			Reason string `json:"reason"`
		} `json:"skipped"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(got.Success) != 1 || got.Success[0] != "a.tex" {
		t.Errorf("success = %v", got.Success)
	}
	if len(got.Failure) != 1 || got.Failure[0].Reason != "boom" || got.Failure[0].Log != "/pdf/b.log" {
		t.Errorf("failure = %+v", got.Failure)
	}
	if len(got.Skipped) != 1 || got.Skipped[0].Reason != ReasonExists {
		t.Errorf("skipped = %+v", got.Skipped)
	}
}

func TestReport_WriteJSONEmptyListsNotNull(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (&Report{}).WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(buf.Bytes(), []byte("null")) {
		t.Errorf("expected empty arrays, got %s", buf.String())
	}
}
