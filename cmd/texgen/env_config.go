package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/alnah/go-texgen/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI-friendly overrides without editing the YAML file.
type envConfig struct {
	ConfigPath string // TEXGEN_CONFIG
	DataFile   string // TEXGEN_DATA_FILE
	OutputDir  string // TEXGEN_OUTPUT_DIR
	LogsDir    string // TEXGEN_LOGS_DIR
	Format     string // TEXGEN_FORMAT
	Provider   string // TEXGEN_PROVIDER
	Model      string // TEXGEN_MODEL
	Ledger     string // TEXGEN_LEDGER
	Retries    int    // TEXGEN_RETRIES

	// Credentials use the provider's conventional names.
	APIKey  string // OPENAI_API_KEY
	BaseURL string // OPENAI_BASE_URL
}

// knownEnvVars lists valid TEXGEN_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"TEXGEN_CONFIG":     true,
	"TEXGEN_DATA_FILE":  true,
	"TEXGEN_OUTPUT_DIR": true,
	"TEXGEN_LOGS_DIR":   true,
	"TEXGEN_FORMAT":     true,
	"TEXGEN_PROVIDER":   true,
	"TEXGEN_MODEL":      true,
	"TEXGEN_LEDGER":     true,
	"TEXGEN_RETRIES":    true,
	"TEXGEN_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("TEXGEN_CONFIG"),
		DataFile:   getenv("TEXGEN_DATA_FILE"),
		OutputDir:  getenv("TEXGEN_OUTPUT_DIR"),
		LogsDir:    getenv("TEXGEN_LOGS_DIR"),
		Format:     getenv("TEXGEN_FORMAT"),
		Provider:   getenv("TEXGEN_PROVIDER"),
		Model:      getenv("TEXGEN_MODEL"),
		Ledger:     getenv("TEXGEN_LEDGER"),
		APIKey:     getenv("OPENAI_API_KEY"),
		BaseURL:    getenv("OPENAI_BASE_URL"),
	}

	// Invalid or non-positive values are ignored.
	if retries := getenv("TEXGEN_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil && n > 0 {
			cfg.Retries = n
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized TEXGEN_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	var unknown []string
	for _, env := range environ {
		if !strings.HasPrefix(env, "TEXGEN_") {
			continue
		}
		name := strings.SplitN(env, "=", 2)[0]
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig applies set environment values over the file config.
// Order: CLI flags > env vars > config file > defaults
// (CLI flags are applied later by the command).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.DataFile != "" {
		cfg.DataFile = env.DataFile
	}
	if env.OutputDir != "" {
		cfg.OutputDir = env.OutputDir
	}
	if env.LogsDir != "" {
		cfg.LogsDir = env.LogsDir
	}
	if env.Format != "" {
		cfg.OutputFormat = env.Format
	}
	if env.Provider != "" {
		cfg.LLM.Provider = env.Provider
	}
	if env.Model != "" {
		cfg.LLM.Model = env.Model
	}
	if env.BaseURL != "" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = env.BaseURL
	}
	if env.Ledger != "" {
		cfg.Ledger = env.Ledger
	}
	if env.Retries > 0 {
		cfg.Retries = env.Retries
	}
}
