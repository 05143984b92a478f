// Package config loads the run configuration for texgen.
//
// The configuration file is YAML. A missing file is created once with
// defaults so that a first run works without setup; a file that exists but
// lacks a required key is a fatal error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-texgen/internal/dateutil"
	"github.com/alnah/go-texgen/internal/fileutil"
	"github.com/alnah/go-texgen/internal/validate"
	"github.com/alnah/go-texgen/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigMissing = errors.New("config file missing")
	ErrConfigParse   = errors.New("failed to parse config")
	ErrConfigField   = errors.New("invalid config field")
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "texgen.yaml"

// Output formats.
const (
	FormatLaTeX    = "latex"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Collision policies.
const (
	CollisionError     = "error"
	CollisionSkip      = "skip"
	CollisionOverwrite = "overwrite"
	CollisionDedupe    = "dedupe"
)

// Compile engines.
const (
	EnginePdfLaTeX = "pdflatex"
	EnginePandoc   = "pandoc"
	EngineChrome   = "chrome"
)

// Config holds the settings of one generation run.
type Config struct {
	StartIndex        int               `yaml:"start_index"`
	MaxEntries        int               `yaml:"max_entries"`
	DataFile          string            `yaml:"data_file"`
	OutputDir         string            `yaml:"output_dir"`
	LogsDir           string            `yaml:"logs_dir"`
	OutputFormat      string            `yaml:"output_format"`
	OnCollision       string            `yaml:"on_collision"`
	Retries           int               `yaml:"retries"`
	DefaultPromptType string            `yaml:"default_prompt_type"`
	MetricsFile       bool              `yaml:"metrics_file"`
	Ledger            string            `yaml:"ledger"`
	Templates         map[string]string `yaml:"templates,omitempty"`
	AssetsDir         string            `yaml:"assets_dir"` // overrides embedded prompts, wrappers, styles
	Date              string            `yaml:"date"`       // "auto", "auto:LAYOUT", a literal, or empty
	LLM               LLMConfig         `yaml:"llm"`
	Compile           CompileConfig     `yaml:"compile"`
}

// LLMConfig selects and configures the generation backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "mock"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"` // Go duration, per request
}

// CompileConfig configures the PDF compile stage.
type CompileConfig struct {
	Engine  string `yaml:"engine"`
	PDFDir  string `yaml:"pdf_dir"`
	Timeout string `yaml:"timeout"` // Go duration, per file
}

// requiredKeys mirrors the keys that must be present in an existing file.
// Pointer fields distinguish "absent" from "zero".
type requiredKeys struct {
	StartIndex *int `yaml:"start_index"`
	MaxEntries *int `yaml:"max_entries"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		StartIndex:        0,
		MaxEntries:        10,
		DataFile:          "topics_final.csv",
		OutputDir:         "output",
		LogsDir:           "logs",
		OutputFormat:      FormatLaTeX,
		OnCollision:       CollisionError,
		Retries:           3,
		DefaultPromptType: "definition",
		MetricsFile:       true,
		Date:              "auto",
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  "2m",
		},
		Compile: CompileConfig{
			Engine:  EnginePdfLaTeX,
			PDFDir:  "pdf_output",
			Timeout: "2m",
		},
	}
}

// LoadOrCreate reads the config at path. When the file does not exist, it is
// created with DefaultConfig and created is true. Keys omitted from an
// existing file, other than the required ones, keep their default values.
func LoadOrCreate(path string) (cfg *Config, created bool, err error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("reading config file: %w", err)
		}
		cfg = DefaultConfig()
		if err := Write(path, cfg); err != nil {
			return nil, false, err
		}
		return cfg, true, nil
	}

	cfg, err = Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, false, nil
}

// Parse decodes YAML config data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: start_index, max_entries are required", ErrConfigField)
	}

	var req requiredKeys
	if err := yamlutil.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	var missing []string
	if req.StartIndex == nil {
		missing = append(missing, "start_index")
	}
	if req.MaxEntries == nil {
		missing = append(missing, "max_entries")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s required", ErrConfigField, strings.Join(missing, ", "))
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write serializes cfg to path, creating parent directories as needed.
func Write(path string, cfg *Config) error {
	data, err := yamlutil.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks enumerated values and numeric ranges.
func (c *Config) Validate() error {
	if c.StartIndex < 0 {
		return fmt.Errorf("%w: start_index must be >= 0, got %d", ErrConfigField, c.StartIndex)
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("%w: max_entries must be >= 0, got %d", ErrConfigField, c.MaxEntries)
	}
	if c.Retries < 1 {
		return fmt.Errorf("%w: retries must be >= 1, got %d", ErrConfigField, c.Retries)
	}
	if err := oneOf("output_format", c.OutputFormat, FormatLaTeX, FormatHTML, FormatMarkdown); err != nil {
		return err
	}
	if err := oneOf("on_collision", c.OnCollision, CollisionError, CollisionSkip, CollisionOverwrite, CollisionDedupe); err != nil {
		return err
	}
	if err := oneOf("compile.engine", c.Compile.Engine, EnginePdfLaTeX, EnginePandoc, EngineChrome); err != nil {
		return err
	}
	if err := oneOf("llm.provider", c.LLM.Provider, "openai", "mock"); err != nil {
		return err
	}
	if c.DefaultPromptType == "" {
		return fmt.Errorf("%w: default_prompt_type cannot be empty", ErrConfigField)
	}
	if err := checkPromptTypes(c.DefaultPromptType, c.Templates); err != nil {
		return err
	}
	if _, err := dateutil.Resolve(c.Date, time.Time{}); err != nil {
		return fmt.Errorf("%w: date: %v", ErrConfigField, err)
	}
	if _, err := c.LLM.RequestTimeout(); err != nil {
		return err
	}
	if _, err := c.Compile.FileTimeout(); err != nil {
		return err
	}
	return nil
}

// checkPromptTypes rejects prompt types that have no validation schema; their
// entries would be generated and then fail every compile.
func checkPromptTypes(defaultType string, templates map[string]string) error {
	known := validate.Types()
	if !slices.Contains(known, defaultType) {
		return fmt.Errorf("%w: default_prompt_type %q has no schema (known: %s)",
			ErrConfigField, defaultType, strings.Join(known, ", "))
	}
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if !slices.Contains(known, name) {
			return fmt.Errorf("%w: templates.%s has no schema (known: %s)",
				ErrConfigField, name, strings.Join(known, ", "))
		}
	}
	return nil
}

// Extension returns the artifact file extension for the output format.
func (c *Config) Extension() string {
	switch c.OutputFormat {
	case FormatHTML:
		return "html"
	case FormatMarkdown:
		return "md"
	default:
		return "tex"
	}
}

// RequestTimeout parses the per-request LLM timeout. Empty means no timeout.
func (l LLMConfig) RequestTimeout() (time.Duration, error) {
	return parseTimeout("llm.timeout", l.Timeout)
}

// FileTimeout parses the per-file compile timeout. Empty means no timeout.
func (c CompileConfig) FileTimeout() (time.Duration, error) {
	return parseTimeout("compile.timeout", c.Timeout)
}

func parseTimeout(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrConfigField, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %s", ErrConfigField, field, value)
	}
	return d, nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: invalid value %q (must be %s)", ErrConfigField, field, value, strings.Join(allowed, ", "))
}

// Slice returns the half-open window [lo, hi) of n records selected by start
// and limit, clamped to the valid range. It never fails: an out-of-range
// start yields an empty window.
func Slice(n, start, limit int) (lo, hi int) {
	if n < 0 {
		n = 0
	}
	lo = min(max(start, 0), n)
	hi = n
	if limit < 0 {
		limit = 0
	}
	if limit < n-lo {
		hi = lo + limit
	}
	return lo, hi
}
