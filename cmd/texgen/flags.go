package main

import (
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-texgen/internal/config"
	"github.com/alnah/go-texgen/internal/llm"
	"github.com/alnah/go-texgen/internal/runlog"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// logFlags controls the run log file.
type logFlags struct {
	enabled bool
	format  string
}

// generateFlags holds flags for the generate command.
type generateFlags struct {
	common  commonFlags
	log     logFlags
	data    string
	output  string
	format  string
	start   int
	limit   int
	retries int
	mock    bool
	compile bool

	// Whether the numeric flags were given; any value, zero or negative
	// included, then overrides the config and is checked by Validate.
	startSet   bool
	limitSet   bool
	retriesSet bool

	// Collision policy. When several are given: overwrite > skip > dedupe.
	skipExisting bool
	overwrite    bool
	dedupe       bool
}

// compileFlags holds flags for the compile and validate commands.
type compileFlags struct {
	common       commonFlags
	log          logFlags
	file         string
	engine       string
	dryRun       bool
	force        bool
	all          bool
	validateOnly bool
	json         bool
}

// historyFlags holds flags for the history command.
type historyFlags struct {
	common commonFlags
	limit  int
	run    string
	file   string
	json   bool
}

// addCommonFlags adds the flags every command accepts.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug diagnostics")
}

// addLogFlags adds the run log flags.
func addLogFlags(fs *flag.FlagSet, f *logFlags) {
	fs.BoolVar(&f.enabled, "log", true, "write the run log under logs_dir")
	fs.StringVar(&f.format, "log-format", runlog.FormatJSONL, "run log format: jsonl, text")
}

// newFlagSet creates a FlagSet that reports errors and usage to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseGenerateFlags parses generate command flags.
func parseGenerateFlags(args []string, w io.Writer) (*generateFlags, error) {
	fs := newFlagSet("generate", w, printGenerateUsage)
	f := &generateFlags{}

	fs.StringVarP(&f.data, "data", "d", "", "topics CSV file")
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVarP(&f.format, "format", "f", "", "output format: latex, html, markdown")
	fs.IntVar(&f.start, "start", 0, "index of the first record")
	fs.IntVar(&f.limit, "limit", 0, "maximum records to process")
	fs.IntVar(&f.retries, "retries", 0, "model attempts per record (>= 1)")
	fs.BoolVar(&f.skipExisting, "skip-existing", false, "skip records whose output exists")
	fs.BoolVar(&f.overwrite, "overwrite", false, "replace existing outputs")
	fs.BoolVar(&f.dedupe, "dedupe", false, "write to a suffixed name when the output exists")
	fs.BoolVar(&f.mock, "mock", false, "use the offline mock backend")
	fs.BoolVar(&f.compile, "compile", false, "compile outputs to PDF after generation")

	addCommonFlags(fs, &f.common)
	addLogFlags(fs, &f.log)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.startSet = fs.Changed("start")
	f.limitSet = fs.Changed("limit")
	f.retriesSet = fs.Changed("retries")
	return f, nil
}

// collisionPolicy returns the policy selected by flags, or "" when none.
func (f *generateFlags) collisionPolicy() string {
	switch {
	case f.overwrite:
		return config.CollisionOverwrite
	case f.skipExisting:
		return config.CollisionSkip
	case f.dedupe:
		return config.CollisionDedupe
	default:
		return ""
	}
}

// apply overrides cfg with the flags that were given.
func (f *generateFlags) apply(cfg *config.Config) {
	if f.data != "" {
		cfg.DataFile = f.data
	}
	if f.output != "" {
		cfg.OutputDir = f.output
	}
	if f.format != "" {
		cfg.OutputFormat = f.format
	}
	if f.startSet {
		cfg.StartIndex = f.start
	}
	if f.limitSet {
		cfg.MaxEntries = f.limit
	}
	if f.retriesSet {
		cfg.Retries = f.retries
	}
	if policy := f.collisionPolicy(); policy != "" {
		cfg.OnCollision = policy
	}
	if f.mock {
		cfg.LLM.Provider = llm.ProviderMock
	}
}

// addCompileFlags adds the flags shared by compile and validate.
func addCompileFlags(fs *flag.FlagSet, f *compileFlags) {
	fs.StringVar(&f.file, "file", "", "process a single file (name or path)")
	fs.BoolVar(&f.json, "json", false, "print the JSON summary to stdout")
	addCommonFlags(fs, &f.common)
	addLogFlags(fs, &f.log)
}

// parseCompileFlags parses compile command flags.
func parseCompileFlags(args []string, w io.Writer) (*compileFlags, error) {
	fs := newFlagSet("compile", w, printCompileUsage)
	f := &compileFlags{}

	fs.StringVarP(&f.engine, "engine", "e", "", "compiler: pdflatex, pandoc, chrome")
	fs.BoolVar(&f.dryRun, "dry-run", false, "validate and list, do not compile")
	fs.BoolVar(&f.force, "force", false, "recompile files whose PDF exists")
	fs.BoolVar(&f.all, "all", false, "alias for --force")
	fs.BoolVar(&f.validateOnly, "validate-only", false, "validate, do not compile")
	addCompileFlags(fs, f)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.force = f.force || f.all
	return f, nil
}

// parseValidateFlags parses validate command flags.
func parseValidateFlags(args []string, w io.Writer) (*compileFlags, error) {
	fs := newFlagSet("validate", w, printValidateUsage)
	f := &compileFlags{validateOnly: true}
	addCompileFlags(fs, f)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// parseHistoryFlags parses history command flags.
func parseHistoryFlags(args []string, w io.Writer) (*historyFlags, error) {
	fs := newFlagSet("history", w, printHistoryUsage)
	f := &historyFlags{}

	fs.IntVarP(&f.limit, "limit", "n", 10, "number of runs to list")
	fs.StringVar(&f.run, "run", "", "show the entries of one run")
	fs.StringVar(&f.file, "file", "", "show the last recorded status of an output file")
	fs.BoolVar(&f.json, "json", false, "print JSON")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
