// Package runlog writes the structured, append-only run logs: one line per
// topic or compiled file, one summary line per run, plus an optional
// diagnostics stream for the terminal.
package runlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alnah/go-texgen/internal/compile"
)

// Log file names inside the logs directory.
const (
	GenerationLog = "generation_log.jsonl"
	CompileLog    = "compile_log.jsonl"
)

// Formats of the file sink.
const (
	FormatJSONL = "jsonl"
	FormatText  = "text"
)

// ErrUnknownFormat is returned for a log format other than jsonl or text.
var ErrUnknownFormat = errors.New("unknown log format")

// Options configures Open.
type Options struct {
	// Path of the log file. Empty disables the file sink.
	Path   string
	Format string
	RunID  string
	// Diagnostics receives human-readable warnings (and debug lines when
	// Verbose). Nil discards them.
	Diagnostics io.Writer
	Verbose     bool
}

// Logger writes run events. The zero value is not usable; use Open or Nop.
type Logger struct {
	events *zap.Logger
	diag   *zap.SugaredLogger
	file   *os.File
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{events: zap.NewNop(), diag: zap.NewNop().Sugar()}
}

// Open creates the log directory if needed and opens the file sink in
// append mode.
func Open(opts Options) (*Logger, error) {
	l := Nop()

	if opts.Diagnostics != nil {
		level := zapcore.WarnLevel
		if opts.Verbose {
			level = zapcore.DebugLevel
		}
		enc := zapcore.NewConsoleEncoder(diagnosticsEncoderConfig())
		l.diag = zap.New(zapcore.NewCore(enc, zapcore.AddSync(opts.Diagnostics), level)).Sugar()
	}

	if opts.Path == "" {
		return l, nil
	}

	var enc zapcore.Encoder
	switch opts.Format {
	case FormatJSONL, "":
		enc = zapcore.NewJSONEncoder(eventEncoderConfig())
	case FormatText:
		enc = zapcore.NewConsoleEncoder(eventEncoderConfig())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	l.file = f

	core := zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.InfoLevel)
	l.events = zap.New(core)
	if opts.RunID != "" {
		l.events = l.events.With(zap.String("run_id", opts.RunID))
	}
	return l, nil
}

func eventEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
}

func diagnosticsEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LevelKey:    "level",
		MessageKey:  "msg",
		LineEnding:  zapcore.DefaultLineEnding,
		EncodeLevel: zapcore.CapitalLevelEncoder,
	}
}

// Close flushes and closes the file sink.
func (l *Logger) Close() error {
	_ = l.events.Sync()
	_ = l.diag.Sync()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Debug writes a diagnostics line shown only in verbose mode.
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.diag.Debugw(msg, keysAndValues...)
}

// Warn writes a diagnostics line.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.diag.Warnw(msg, keysAndValues...)
}

// Entry is the outcome of one topic record.
type Entry struct {
	ID          string
	Domain      string
	Topic       string
	Subtopic    string
	PromptType  string
	Filename    string
	Status      string
	Error       string
	Attempts    int
	Latency     time.Duration
	ContentHash string
}

// Entry appends one record outcome.
func (l *Logger) Entry(e Entry) {
	fields := []zap.Field{
		zap.String("id", e.ID),
		zap.String("domain", e.Domain),
		zap.String("topic", e.Topic),
		zap.String("subtopic", e.Subtopic),
		zap.String("prompt_type", e.PromptType),
		zap.String("filename", e.Filename),
		zap.String("status", e.Status),
		zap.Int("attempts", e.Attempts),
		zap.Int64("latency_ms", e.Latency.Milliseconds()),
	}
	if e.ContentHash != "" {
		fields = append(fields, zap.String("content_hash", e.ContentHash))
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error_message", e.Error))
		l.events.Error("entry", fields...)
		return
	}
	l.events.Info("entry", fields...)
}

// Summary appends the per-run totals.
func (l *Logger) Summary(s Summary) {
	l.events.Info("summary",
		zap.Int("processed", s.Processed),
		zap.Int("attempted", s.Attempted),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped),
		zap.Float64("success_rate", s.SuccessRate()),
		zap.Int64("avg_latency_ms", s.AverageLatency().Milliseconds()),
		zap.Int64("total_time_ms", s.Total.Milliseconds()),
	)
}

// Record appends one compile outcome. It satisfies compile.Recorder.
func (l *Logger) Record(r compile.Result) {
	fields := []zap.Field{
		zap.String("file", filepath.Base(r.File)),
		zap.String("status", string(r.Status)),
		zap.String("prompt_type", r.PromptType),
		zap.Int64("latency_ms", r.Duration.Milliseconds()),
	}
	if r.PDF != "" && r.Status == compile.StatusSuccess {
		fields = append(fields, zap.String("pdf", r.PDF), zap.Int("pages", r.Pages))
	}
	if r.Reason != "" {
		fields = append(fields, zap.String("reason", r.Reason))
	}
	if r.Log != "" {
		fields = append(fields, zap.String("log", r.Log))
	}
	if r.Status == compile.StatusFailure {
		l.events.Error("compile", fields...)
		return
	}
	l.events.Info("compile", fields...)
}
