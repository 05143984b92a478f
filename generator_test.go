package texgen

// Notes:
// - The model is a scripted fake; backoff sleeps go through a recording
//   Sleeper, so retry tests run instantly.
// - Rendering uses the real LaTeX renderer over the embedded wrapper.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-texgen/internal/config"
	"github.com/alnah/go-texgen/internal/ledger"
	"github.com/alnah/go-texgen/internal/llm"
	"github.com/alnah/go-texgen/internal/prompt"
	"github.com/alnah/go-texgen/internal/runlog"
	"github.com/alnah/go-texgen/internal/topics"
)

const body = "# Title\n\n## Definition\n\nA $x^2$ thing.\n"

// scriptedClient replays responses in order; once exhausted it repeats the
// last one.
type scriptedClient struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
}

type reply struct {
	text string
	err  error
}

func (c *scriptedClient) Generate(ctx context.Context, p string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, p)
	if len(c.replies) == 0 {
		return body, nil
	}
	r := c.replies[0]
	if len(c.replies) > 1 {
		c.replies = c.replies[1:]
	}
	return r.text, r.err
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.LogsDir = filepath.Join(dir, "logs")
	cfg.MetricsFile = false
	cfg.MaxEntries = 100
	return cfg
}

func record(id, subtopic string) topics.Record {
	return topics.Record{ID: id, Domain: "Algebra", Topic: "Groups", Subtopic: subtopic, PromptType: "definition", Row: 1}
}

func newTestGenerator(t *testing.T, cfg *config.Config, client llm.Client, opts ...Option) (*Generator, *sleepRecorder) {
	t.Helper()
	s := &sleepRecorder{}
	all := append([]Option{WithClient(client), WithSleeper(s.sleep), WithRunID("test-run")}, opts...)
	g, err := NewGenerator(cfg, all...)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g, s
}

// ---------------------------------------------------------------------------
// TestNewGenerator - Construction
// ---------------------------------------------------------------------------

func TestNewGenerator_RequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerator(testConfig(t)); !errors.Is(err, ErrNoClient) {
		t.Fatalf("expected ErrNoClient, got %v", err)
	}
}

func TestNewGenerator_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.OnCollision = "merge"
	if _, err := NewGenerator(cfg, WithClient(llm.Mock{})); !errors.Is(err, ErrConfigField) {
		t.Fatalf("expected ErrConfigField, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestRun - Happy Path
// ---------------------------------------------------------------------------

func TestRun_WritesEntry(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	client := &scriptedClient{}
	var progress bytes.Buffer
	g, _ := newTestGenerator(t, cfg, client, WithProgress(&progress))

	summary, err := g.Run(context.Background(), []topics.Record{record("1", "Cosets")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Succeeded != 1 || summary.Processed != 1 || summary.Attempted != 1 {
		t.Fatalf("unexpected summary: %+v", summary.Summary)
	}

	out := summary.Outcomes[0]
	want := filepath.Join(cfg.OutputDir, "algebra-groups-cosets.tex")
	if out.Path != want {
		t.Errorf("path = %q, want %q", out.Path, want)
	}
	if len(out.Hash) != 64 {
		t.Errorf("expected sha256 hex hash, got %q", out.Hash)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	for _, s := range []string{"% Cosets", "% ID: 1", "% Domain: Algebra", "% Prompt Type: definition", `\section*{Title}`, "$x^2$"} {
		if !strings.Contains(doc, s) {
			t.Errorf("document missing %q", s)
		}
	}
	if !strings.Contains(client.prompts[0], "Cosets") {
		t.Errorf("prompt was not rendered with record fields: %q", client.prompts[0])
	}
	if !strings.Contains(progress.String(), "Wrote "+want) {
		t.Errorf("progress = %q", progress.String())
	}
}

func TestRun_EntryDate(t *testing.T) {
	t.Parallel()

	clock := func() time.Time { return time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC) }
	tests := []struct {
		name string
		date string
		want string
	}{
		{"default layout", "auto", "% Date: 2026-03-07"},
		{"preset", "auto:long", "% Date: March 7, 2026"},
		{"literal", "Spring 2026", "% Date: Spring 2026"},
		{"disabled", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t)
			cfg.Date = tt.date
			g, _ := newTestGenerator(t, cfg, &scriptedClient{}, WithClock(clock))
			summary, err := g.Run(context.Background(), []topics.Record{record("1", "Cosets")})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			data, err := os.ReadFile(summary.Outcomes[0].Path)
			if err != nil {
				t.Fatal(err)
			}
			doc := string(data)
			if tt.want == "" {
				if strings.Contains(doc, "% Date:") {
					t.Errorf("expected no date line, got:\n%s", doc)
				}
				return
			}
			if !strings.Contains(doc, tt.want) {
				t.Errorf("document missing %q", tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRun_Collision - Policy Matrix
// ---------------------------------------------------------------------------

func TestRun_Collision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		policy     string
		wantErr    error
		wantStatus Status
		wantCalls  int
		wantPath   string
		oldKept    bool
	}{
		{config.CollisionError, ErrOutputCollision, StatusError, 0, "algebra-groups-cosets.tex", true},
		{config.CollisionSkip, nil, StatusSkipped, 0, "algebra-groups-cosets.tex", true},
		{config.CollisionOverwrite, nil, StatusSuccess, 1, "algebra-groups-cosets.tex", false},
		{config.CollisionDedupe, nil, StatusSuccess, 1, "algebra-groups-cosets-2.tex", true},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t)
			cfg.OnCollision = tt.policy
			existing := filepath.Join(cfg.OutputDir, "algebra-groups-cosets.tex")
			if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
				t.Fatal(err)
			}

			client := &scriptedClient{}
			g, _ := newTestGenerator(t, cfg, client)
			records := []topics.Record{record("1", "Cosets"), record("2", "Kernels")}

			summary, err := g.Run(context.Background(), records)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if summary.Processed != 1 {
					t.Errorf("run should stop at the collision, processed %d", summary.Processed)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			out := summary.Outcomes[0]
			if out.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", out.Status, tt.wantStatus)
			}
			if filepath.Base(out.Path) != tt.wantPath {
				t.Errorf("path = %q, want %q", filepath.Base(out.Path), tt.wantPath)
			}

			calls := client.calls()
			if tt.wantErr == nil {
				calls-- // the second record always reaches the model
			}
			if calls != tt.wantCalls {
				t.Errorf("model calls for colliding record = %d, want %d", calls, tt.wantCalls)
			}

			data, _ := os.ReadFile(existing)
			if got := string(data) == "old"; got != tt.oldKept {
				t.Errorf("old file kept = %v, want %v", got, tt.oldKept)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRun_Slice - Start and Limit
// ---------------------------------------------------------------------------

func TestRun_Slice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		start   int
		limit   int
		wantIDs []string
	}{
		{"middle window", 2, 3, []string{"3", "4", "5"}},
		{"override window", 1, 2, []string{"2", "3"}},
		{"past the end", 10, 5, nil},
		{"clamped at end", 5, 10, []string{"6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t)
			cfg.StartIndex, cfg.MaxEntries = tt.start, tt.limit
			g, _ := newTestGenerator(t, cfg, &scriptedClient{})

			var records []topics.Record
			for i := 1; i <= 6; i++ {
				records = append(records, record(fmt.Sprint(i), fmt.Sprintf("Sub %d", i)))
			}

			summary, err := g.Run(context.Background(), records)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var ids []string
			for _, o := range summary.Outcomes {
				ids = append(ids, o.Record.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("processed %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRun_Retry - Backoff and Exhaustion
// ---------------------------------------------------------------------------

func TestRun_RetryThenSuccess(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Retries = 3
	client := &scriptedClient{replies: []reply{
		{err: errors.New("rate limited")},
		{text: "   "},
		{text: body},
	}}
	g, sleeper := newTestGenerator(t, cfg, client)

	summary, err := g.Run(context.Background(), []topics.Record{record("1", "Cosets")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := summary.Outcomes[0]
	if out.Status != StatusSuccess || out.Attempts != 3 {
		t.Errorf("outcome = %+v", out)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if fmt.Sprint(sleeper.delays) != fmt.Sprint(want) {
		t.Errorf("backoff delays = %v, want %v", sleeper.delays, want)
	}
}

func TestRun_RetryExhaustedContinues(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Retries = 2
	client := &scriptedClient{replies: []reply{
		{err: errors.New("boom")},
		{text: ""},
		{text: body},
	}}
	g, sleeper := newTestGenerator(t, cfg, client)

	summary, err := g.Run(context.Background(), []topics.Record{record("1", "Cosets"), record("2", "Kernels")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := summary.Outcomes[0]
	if !errors.Is(first.Err, ErrGenerationFailed) || !errors.Is(first.Err, ErrEmptyResponse) {
		t.Errorf("expected generation failure wrapping the last cause, got %v", first.Err)
	}
	if first.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", first.Attempts)
	}
	if len(sleeper.delays) != 1 {
		t.Errorf("expected one backoff between two attempts, got %v", sleeper.delays)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "algebra-groups-cosets.tex")); !os.IsNotExist(err) {
		t.Error("failed record must not leave a file")
	}
	if summary.Outcomes[1].Status != StatusSuccess {
		t.Errorf("next record should succeed, got %+v", summary.Outcomes[1])
	}
	if summary.Failed != 1 || summary.Succeeded != 1 || summary.SuccessRate() != 0.5 {
		t.Errorf("summary = %+v", summary.Summary)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRun_RecordFailures - Scoped to One Record
// ---------------------------------------------------------------------------

func TestRun_RecordFailures(t *testing.T) {
	t.Parallel()

	missingTemplate := record("3", "Orbits")
	missingTemplate.PromptType = "abstract"

	unknownType := record("4", "Cycles")
	unknownType.PromptType = "essay"

	badSlug := record("5", "Cosets")
	badSlug.Domain = "!!!"

	tests := []struct {
		name       string
		rec        topics.Record
		wantErr    error
		wantStatus Status
		wantType   string
	}{
		{"missing subtopic", record("1", "  "), ErrMissingSubtopic, StatusError, "definition"},
		{"invalid slug", badSlug, ErrInvalidSlug, StatusError, "definition"},
		{"missing template file", missingTemplate, ErrTemplateNotFound, StatusError, "abstract"},
		{"unknown type falls back", unknownType, nil, StatusSuccess, "definition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := prompt.NewRegistry("definition")
			reg.Register("definition", prompt.InlineTemplate("Write about ${subtopic}"))
			reg.Register("abstract", prompt.FileTemplate(filepath.Join(t.TempDir(), "missing.txt")))

			cfg := testConfig(t)
			g, _ := newTestGenerator(t, cfg, &scriptedClient{}, WithRegistry(reg))

			summary, err := g.Run(context.Background(), []topics.Record{tt.rec, record("9", "Rings")})
			if err != nil {
				t.Fatalf("record failures must not stop the run: %v", err)
			}
			out := summary.Outcomes[0]
			if out.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q (err %v)", out.Status, tt.wantStatus, out.Err)
			}
			if tt.wantErr != nil && !errors.Is(out.Err, tt.wantErr) {
				t.Errorf("err = %v, want %v", out.Err, tt.wantErr)
			}
			if out.PromptType != tt.wantType {
				t.Errorf("prompt type = %q, want %q", out.PromptType, tt.wantType)
			}
			if summary.Outcomes[1].Status != StatusSuccess {
				t.Errorf("following record should succeed, got %+v", summary.Outcomes[1])
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRun_Cancel - Stops Before the Next Record
// ---------------------------------------------------------------------------

func TestRun_Cancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := llm.ClientFunc(func(context.Context, string) (string, error) {
		cancel()
		return body, nil
	})
	g, _ := newTestGenerator(t, testConfig(t), client)

	summary, err := g.Run(ctx, []topics.Record{record("1", "Cosets"), record("2", "Kernels")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Processed != 1 || summary.Outcomes[0].Status != StatusSuccess {
		t.Errorf("current record should finish, got %+v", summary.Outcomes)
	}
}

// ---------------------------------------------------------------------------
// TestRun_Sinks - Log, Metrics, Ledger
// ---------------------------------------------------------------------------

type fakeLedger struct {
	runs     []ledger.Run
	entries  []ledger.Entry
	finished string
	counts   ledger.Counts
}

func (f *fakeLedger) BeginRun(_ context.Context, r ledger.Run) error {
	f.runs = append(f.runs, r)
	return nil
}

func (f *fakeLedger) AddEntry(_ context.Context, e ledger.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLedger) FinishRun(_ context.Context, id, status string, _ time.Time, c ledger.Counts) error {
	f.finished, f.counts = status, c
	return nil
}

func TestRun_Sinks(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.MetricsFile = true

	logPath := filepath.Join(cfg.LogsDir, runlog.GenerationLog)
	l, err := runlog.Open(runlog.Options{Path: logPath, RunID: "test-run"})
	if err != nil {
		t.Fatal(err)
	}
	led := &fakeLedger{}
	g, _ := newTestGenerator(t, cfg, &scriptedClient{}, WithLogger(l), WithLedger(led))

	if _, err := g.Run(context.Background(), []topics.Record{record("1", "Cosets"), record("2", "")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 2 entries and 1 summary, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], `"error_message"`) || !strings.Contains(lines[2], `"summary"`) {
		t.Errorf("unexpected log lines:\n%s", data)
	}

	if _, err := os.Stat(filepath.Join(cfg.LogsDir, runlog.MetricsFile)); err != nil {
		t.Errorf("metrics file missing: %v", err)
	}

	if len(led.runs) != 1 || led.runs[0].ID != "test-run" {
		t.Errorf("ledger runs = %+v", led.runs)
	}
	if len(led.entries) != 2 || led.finished != ledger.RunCompleted || led.counts.Failed != 1 {
		t.Errorf("ledger entries=%d finished=%q counts=%+v", len(led.entries), led.finished, led.counts)
	}
}
