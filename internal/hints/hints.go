// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-texgen/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForCompilerMissing returns install instructions for a missing PDF engine.
func ForCompilerMissing(engine string) string {
	switch engine {
	case "pdflatex":
		return format("Install TeX Live (https://tug.org/texlive/) or MiKTeX and make sure pdflatex is on PATH")
	case "pandoc":
		return format("Install pandoc (https://pandoc.org/installing.html) and a LaTeX engine for PDF output")
	case "chrome":
		return ForBrowserConnect()
	default:
		return ""
	}
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForAPIKey returns a hint for a missing LLM credential.
func ForAPIKey() string {
	return format("export OPENAI_API_KEY, or pass --mock to generate placeholder content")
}

// ForConfigCreated tells the user a default configuration was written.
func ForConfigCreated(path string) string {
	return format("a default configuration was written to " + path + "; review data_file and llm before the next run")
}

// ForConfigField returns hints for invalid or missing configuration keys.
func ForConfigField() string {
	return format("start_index and max_entries are required; see texgen.yaml")
}

// ForTimeout returns a hint about increasing timeouts for slow operations.
func ForTimeout() string {
	return format("raise llm.timeout or compile.timeout in the configuration")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForCollision returns the flags that resolve an existing output file.
func ForCollision() string {
	return format("use --skip-existing, --overwrite or --dedupe")
}

// ForLedger tells the user how to enable run history.
func ForLedger() string {
	return format("set ledger: texgen.db in the configuration")
}

// ForPromptType lists the prompt types that have templates.
func ForPromptType(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
