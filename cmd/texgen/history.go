package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/alnah/go-texgen/internal/hints"
	"github.com/alnah/go-texgen/internal/ledger"
)

// runJSON is the --json form of a ledger run.
type runJSON struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Processed  int        `json:"processed"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	Note       string     `json:"note,omitempty"`
}

// entryJSON is the --json form of a ledger entry.
type entryJSON struct {
	RecordID    string `json:"id,omitempty"`
	PromptType  string `json:"prompt_type,omitempty"`
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	Attempts    int    `json:"attempts,omitempty"`
	LatencyMS   int64  `json:"latency_ms"`
	ContentHash string `json:"content_hash,omitempty"`
}

// runHistoryCmd executes the history command and returns an exit code.
func runHistoryCmd(ctx context.Context, args []string, env *Environment) int {
	f, err := parseHistoryFlags(args, env.Stderr)
	if err != nil {
		return parseFailed(err)
	}

	s, err := loadSession(f.common, env)
	if err != nil {
		return fail(env, err)
	}
	if s.cfg.Ledger == "" {
		return fail(env, fmt.Errorf("%w%s", errLedgerDisabled, hints.ForLedger()))
	}
	store, err := ledger.Open(s.cfg.Ledger)
	if err != nil {
		return fail(env, err)
	}
	defer store.Close()

	switch {
	case f.file != "":
		return showFileStatus(ctx, store, f, env)
	case f.run != "":
		return showRun(ctx, store, f, env)
	default:
		return listRuns(ctx, store, f, env)
	}
}

func listRuns(ctx context.Context, store *ledger.Store, f *historyFlags, env *Environment) int {
	runs, err := store.Runs(ctx, f.limit)
	if err != nil {
		return fail(env, err)
	}

	if f.json {
		out := make([]runJSON, 0, len(runs))
		for _, r := range runs {
			out = append(out, toRunJSON(r))
		}
		return writeJSON(env, out)
	}

	if len(runs) == 0 {
		fmt.Fprintln(env.Stdout, "No runs recorded.")
		return ExitSuccess
	}
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tKIND\tSTARTED\tSTATUS\tOK\tFAILED\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Kind, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Status,
			r.Succeeded, r.Failed, r.Skipped)
	}
	_ = tw.Flush()
	return ExitSuccess
}

func showRun(ctx context.Context, store *ledger.Store, f *historyFlags, env *Environment) int {
	run, err := store.GetRun(ctx, f.run)
	if err != nil {
		return fail(env, fmt.Errorf("run %s: %w", f.run, err))
	}
	entries, err := store.Entries(ctx, f.run)
	if err != nil {
		return fail(env, err)
	}

	if f.json {
		out := struct {
			runJSON
			Entries []entryJSON `json:"entries"`
		}{runJSON: toRunJSON(run), Entries: make([]entryJSON, 0, len(entries))}
		for _, e := range entries {
			out.Entries = append(out.Entries, entryJSON{
				RecordID:    e.RecordID,
				PromptType:  e.PromptType,
				Filename:    e.Filename,
				Status:      e.Status,
				Error:       e.Error,
				Attempts:    e.Attempts,
				LatencyMS:   e.Latency.Milliseconds(),
				ContentHash: e.ContentHash,
			})
		}
		return writeJSON(env, out)
	}

	fmt.Fprintf(env.Stdout, "Run %s (%s, %s)\n", run.ID, run.Kind, run.Status)
	if run.Note != "" {
		fmt.Fprintf(env.Stdout, "  %s\n", run.Note)
	}
	fmt.Fprintln(env.Stdout)
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tFILE\tTYPE\tATTEMPTS\tLATENCY\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.Status, filepath.Base(e.Filename), e.PromptType, e.Attempts, e.Latency, e.Error)
	}
	_ = tw.Flush()
	return ExitSuccess
}

// showFileStatus prints the last status of an output file. Exit status is
// 1 when the file was never recorded.
func showFileStatus(ctx context.Context, store *ledger.Store, f *historyFlags, env *Environment) int {
	name := filepath.Base(f.file)
	status, ok, err := store.LastStatus(ctx, name)
	if err != nil {
		return fail(env, err)
	}
	if f.json {
		code := writeJSON(env, map[string]any{"filename": name, "recorded": ok, "status": status})
		if code == ExitSuccess && !ok {
			return ExitGeneral
		}
		return code
	}
	if !ok {
		fmt.Fprintf(env.Stdout, "%s: not recorded\n", name)
		return ExitGeneral
	}
	fmt.Fprintf(env.Stdout, "%s: %s\n", name, status)
	return ExitSuccess
}

func toRunJSON(r ledger.Run) runJSON {
	out := runJSON{
		ID:        r.ID,
		Kind:      r.Kind,
		Status:    r.Status,
		StartedAt: r.StartedAt,
		Processed: r.Processed,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Skipped:   r.Skipped,
		Note:      r.Note,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		out.FinishedAt = &finished
	}
	return out
}

func writeJSON(env *Environment, v any) int {
	enc := json.NewEncoder(env.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(env, err)
	}
	return ExitSuccess
}

