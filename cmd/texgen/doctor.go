package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-texgen/internal/config"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status      string         `json:"status"` // "ready", "warnings", "errors"
	Config      configInfo     `json:"config"`
	Compilers   []compilerInfo `json:"compilers"`
	Credentials credInfo       `json:"credentials"`
	Env         envInfo        `json:"environment"`
	System      systemInfo     `json:"system"`
	Warnings    []string       `json:"warnings,omitempty"`
	Errors      []string       `json:"errors,omitempty"`
}

// configInfo reports the config file state.
type configInfo struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Valid  bool   `json:"valid"`
	Format string `json:"output_format,omitempty"`
	Engine string `json:"engine,omitempty"`
}

// compilerInfo holds detection results for one PDF engine.
type compilerInfo struct {
	Engine  string `json:"engine"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// credInfo reports which credentials are present, never their values.
type credInfo struct {
	OpenAIKey bool   `json:"openai_api_key"`
	BaseURL   string `json:"openai_base_url,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	fs := newFlagSet("doctor", env.Stderr, printDoctorUsage)
	jsonOutput := fs.Bool("json", false, "print JSON")
	configPath := fs.StringP("config", "c", "", "config file path")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	result := runDoctor(ctx, env, *configPath)

	if *jsonOutput {
		if code := writeJSON(env, result); code != ExitSuccess {
			return code
		}
	} else {
		printDoctorResult(env, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, env *Environment, configPath string) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkConfig(result, env, configPath)
	checkCompilers(ctx, result, env)
	checkChrome(ctx, result, env)
	checkCredentials(result, env)
	checkEnvironment(result, env)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

// checkConfig parses the config file without creating it.
func checkConfig(result *doctorResult, env *Environment, path string) {
	if path == "" {
		path = env.Getenv("TEXGEN_CONFIG")
	}
	if path == "" {
		path = config.DefaultPath
	}
	result.Config.Path = path

	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if errors.Is(err, os.ErrNotExist) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Config %s not found; the first generate run creates it", path))
		return
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config %s unreadable: %v", path, err))
		return
	}
	result.Config.Exists = true

	cfg, err := config.Parse(data)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config %s: %v", path, err))
		return
	}
	result.Config.Valid = true
	result.Config.Format = cfg.OutputFormat
	result.Config.Engine = engineFor("", cfg)
}

// checkCompilers looks up the external PDF engines on PATH. A missing
// engine is a warning: only the one matching the output format is needed.
func checkCompilers(ctx context.Context, result *doctorResult, env *Environment) {
	for _, engine := range []string{config.EnginePdfLaTeX, config.EnginePandoc} {
		info := compilerInfo{Engine: engine}
		path, err := env.LookPath(engine)
		if err != nil {
			if result.Config.Engine == engine {
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s not found on PATH; the configured output format needs it", engine))
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s not found on PATH", engine))
			}
			result.Compilers = append(result.Compilers, info)
			continue
		}
		info.Found = true
		info.Path = path
		info.Version = toolVersion(ctx, env, path)
		result.Compilers = append(result.Compilers, info)
	}
}

// checkChrome detects Chrome/Chromium for the html engine.
func checkChrome(ctx context.Context, result *doctorResult, env *Environment) {
	info := compilerInfo{Engine: config.EngineChrome}
	defer func() { result.Compilers = append(result.Compilers, info) }()

	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			msg := "Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN"
			if result.Config.Engine == config.EngineChrome {
				result.Errors = append(result.Errors, msg)
			} else {
				result.Warnings = append(result.Warnings, msg)
			}
			return
		}
	}
	if _, err := os.Stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	info.Found = true
	info.Path = chromePath
	info.Version = toolVersion(ctx, env, chromePath)
}

// toolVersion returns the first line of `path --version`, or "".
func toolVersion(ctx context.Context, env *Environment, path string) string {
	if env.Runner == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, _, err := env.Runner.Run(ctx, path, "--version")
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return line
}

// checkCredentials reports whether the OpenAI key is set.
func checkCredentials(result *doctorResult, env *Environment) {
	result.Credentials.OpenAIKey = env.Getenv("OPENAI_API_KEY") != ""
	result.Credentials.BaseURL = env.Getenv("OPENAI_BASE_URL")
	if !result.Credentials.OpenAIKey {
		result.Warnings = append(result.Warnings,
			"OPENAI_API_KEY not set; only --mock generation is available")
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, env *Environment) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env.Getenv)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1 for the chrome engine")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("TEXGEN_CONTAINER") == "1" {
		return true, "TEXGEN_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable; compilers write
// their scratch files there.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "texgen-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(env *Environment, r *doctorResult) {
	w := env.Stdout
	fmt.Fprintln(w, "texgen doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Config")
	switch {
	case r.Config.Valid:
		fmt.Fprintf(w, "  [OK] %s (format %s, engine %s)\n", r.Config.Path, r.Config.Format, r.Config.Engine)
	case r.Config.Exists:
		fmt.Fprintf(w, "  [ERROR] %s is invalid\n", r.Config.Path)
	default:
		fmt.Fprintf(w, "  [WARN] %s not found\n", r.Config.Path)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Compilers")
	for _, c := range r.Compilers {
		if !c.Found {
			fmt.Fprintf(w, "  [WARN] %s: not found\n", c.Engine)
			continue
		}
		if c.Version != "" {
			fmt.Fprintf(w, "  [OK] %s: %s (%s)\n", c.Engine, c.Path, c.Version)
		} else {
			fmt.Fprintf(w, "  [OK] %s: %s\n", c.Engine, c.Path)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Credentials")
	if r.Credentials.OpenAIKey {
		fmt.Fprintln(w, "  [OK] OPENAI_API_KEY: set")
	} else {
		fmt.Fprintln(w, "  [WARN] OPENAI_API_KEY: not set")
	}
	if r.Credentials.BaseURL != "" {
		fmt.Fprintf(w, "  [OK] OPENAI_BASE_URL: %s\n", r.Credentials.BaseURL)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
