package compile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alnah/go-texgen/internal/fileutil"
	"github.com/alnah/go-texgen/internal/render"
	"github.com/alnah/go-texgen/internal/validate"
)

// Status is the outcome of one source file.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// Skip reasons.
const (
	ReasonExists = "already exists"
	ReasonDryRun = "dry run"
)

// Result describes what happened to one source file.
type Result struct {
	File       string
	PDF        string
	PromptType string
	Status     Status
	Reason     string
	// Err is the cause of a failure, for errors.Is checks.
	Err error
	// Log is the compiler transcript left next to the PDF on failure, if any.
	Log      string
	Pages    int
	Duration time.Duration
}

// Recorder receives every Result as soon as it is known.
type Recorder interface {
	Record(Result)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Result)

func (f RecorderFunc) Record(r Result) { f(r) }

// Options controls a Stage run.
type Options struct {
	// SourceDir is scanned for files with the compiler's extension.
	SourceDir string
	// File restricts the run to a single source file.
	File   string
	PDFDir string
	// Force recompiles sources whose PDF already exists.
	Force  bool
	DryRun bool
	// ValidateOnly stops after the structural checks.
	ValidateOnly bool
	// Timeout bounds each compilation; zero means no limit.
	Timeout time.Duration
	// Lookup resolves the prompt type of a source that carries no metadata
	// header. It may be nil.
	Lookup func(file string) (promptType string, ok bool)
}

// Stage validates generated entries and compiles them one at a time.
type Stage struct {
	compiler Compiler
	opts     Options
	recorder Recorder
	now      func() time.Time
}

// NewStage returns a Stage. rec may be nil.
func NewStage(c Compiler, opts Options, rec Recorder) *Stage {
	if rec == nil {
		rec = RecorderFunc(func(Result) {})
	}
	return &Stage{compiler: c, opts: opts, recorder: rec, now: time.Now}
}

// Sources lists the files the run will process, sorted by name.
func (s *Stage) Sources() ([]string, error) {
	if s.opts.File != "" {
		if !fileutil.FileExists(s.opts.File) {
			return nil, fmt.Errorf("source file %s: %w", s.opts.File, os.ErrNotExist)
		}
		return []string{s.opts.File}, nil
	}

	entries, err := os.ReadDir(s.opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.opts.SourceDir, err)
	}
	suffix := "." + s.compiler.Extension()
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		files = append(files, filepath.Join(s.opts.SourceDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every source. Per-file failures, a missing compiler
// included, are recorded in the report and the run moves on; the returned
// error is reserved for listing failures and a canceled context.
func (s *Stage) Run(ctx context.Context) (*Report, error) {
	if closer, ok := s.compiler.(io.Closer); ok {
		defer closer.Close()
	}

	files, err := s.Sources()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := s.process(ctx, file)
		report.Results = append(report.Results, res)
		s.recorder.Record(res)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (s *Stage) process(ctx context.Context, file string) (Result, error) {
	start := s.now()
	res := Result{File: file}
	finish := func(status Status, reason string) Result {
		res.Status = status
		res.Reason = reason
		res.Duration = s.now().Sub(start)
		return res
	}

	data, err := os.ReadFile(file)
	if err != nil {
		res.Err = err
		return finish(StatusFailure, err.Error()), nil
	}
	contents := string(data)

	if ok, reason := validate.Source(contents, filepath.Ext(file)); !ok {
		res.Err = fmt.Errorf("%w: %s", validate.ErrValidationFailed, reason)
		return finish(StatusFailure, reason), nil
	}
	res.PromptType = s.promptType(file, contents)
	if res.PromptType != "" {
		if ok, reason := validate.Validate(contents, res.PromptType); !ok {
			res.Err = fmt.Errorf("%w: %s", validate.ErrValidationFailed, reason)
			return finish(StatusFailure, "validation: "+reason), nil
		}
	}
	if s.opts.ValidateOnly {
		return finish(StatusSuccess, ""), nil
	}

	res.PDF = filepath.Join(s.opts.PDFDir, fileutil.ReplaceExt(filepath.Base(file), "pdf"))
	if fileutil.FileExists(res.PDF) && !s.opts.Force {
		return finish(StatusSkipped, ReasonExists), nil
	}
	if s.opts.DryRun {
		return finish(StatusSkipped, ReasonDryRun), nil
	}

	compileCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		compileCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	pdfPath, err := s.compiler.Compile(compileCtx, file, s.opts.PDFDir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return finish(StatusFailure, ctxErr.Error()), ctxErr
		}
		res.Err = err
		if transcript := fileutil.ReplaceExt(res.PDF, "log"); fileutil.FileExists(transcript) {
			res.Log = transcript
		}
		return finish(StatusFailure, err.Error()), nil
	}
	res.PDF = pdfPath

	pages, err := PageCount(pdfPath)
	if err != nil {
		res.Err = err
		return finish(StatusFailure, err.Error()), nil
	}
	res.Pages = pages
	return finish(StatusSuccess, ""), nil
}

// promptType reads the type from the entry header, then from Lookup.
func (s *Stage) promptType(file, contents string) string {
	if meta, ok := render.ReadMeta(file, contents); ok && meta.PromptType != "" {
		return meta.PromptType
	}
	if s.opts.Lookup != nil {
		if pt, ok := s.opts.Lookup(file); ok {
			return pt
		}
	}
	return ""
}

// Report collects the results of a Stage run.
type Report struct {
	Results []Result
}

// Count returns the number of results with status st.
func (r *Report) Count(st Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == st {
			n++
		}
	}
	return n
}

// Failed reports whether any file failed.
func (r *Report) Failed() bool {
	return r.Count(StatusFailure) > 0
}

type failureJSON struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
	Log    string `json:"log,omitempty"`
}

type skippedJSON struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

type summaryJSON struct {
	Success []string      `json:"success"`
	Failure []failureJSON `json:"failure"`
	Skipped []skippedJSON `json:"skipped"`
}

// WriteJSON writes the machine-readable summary:
// {"success": [files], "failure": [{file, reason, log}], "skipped": [...]}.
func (r *Report) WriteJSON(w io.Writer) error {
	out := summaryJSON{
		Success: []string{},
		Failure: []failureJSON{},
		Skipped: []skippedJSON{},
	}
	for _, res := range r.Results {
		name := filepath.Base(res.File)
		switch res.Status {
		case StatusSuccess:
			out.Success = append(out.Success, name)
		case StatusFailure:
			out.Failure = append(out.Failure, failureJSON{File: name, Reason: res.Reason, Log: res.Log})
		case StatusSkipped:
			out.Skipped = append(out.Skipped, skippedJSON{File: name, Reason: res.Reason})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
