package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-texgen/internal/fileutil"
	"github.com/alnah/go-texgen/internal/hints"
	"github.com/alnah/go-texgen/internal/process"
)

// A4 page dimensions in inches.
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	marginInches   = 0.6
)

// mathJaxReady resolves once MathJax has typeset the page, or immediately
// when the page does not load MathJax.
const mathJaxReady = `() => (window.MathJax && MathJax.startup && MathJax.startup.promise) ? MathJax.startup.promise.then(() => true) : true`

// Chrome prints HTML sources with headless Chrome via go-rod.
// The browser is started on first use and reused until Close.
type Chrome struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// NewChrome returns a Chrome compiler that waits at most timeout per page.
func NewChrome(timeout time.Duration) *Chrome {
	return &Chrome{timeout: timeout}
}

func (c *Chrome) Name() string      { return EngineChrome }
func (c *Chrome) Extension() string { return "html" }

func (c *Chrome) ensureBrowser() error {
	if c.browser != nil {
		return nil
	}

	l := launcher.New()
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v%s", ErrCompilerUnavailable, err, hints.ForBrowserConnect())
	}
	c.launcher = l

	c.browser = rod.New().ControlURL(u)
	if err := c.browser.Connect(); err != nil {
		c.browser = nil
		c.kill()
		return fmt.Errorf("%w: %v%s", ErrCompilerUnavailable, err, hints.ForBrowserConnect())
	}
	return nil
}

// Close shuts the browser down and kills any leftover renderer processes.
func (c *Chrome) Close() error {
	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	c.kill()
	return err
}

func (c *Chrome) kill() {
	if c.launcher == nil {
		return
	}
	process.KillProcessGroup(c.launcher.PID())
	c.launcher.Kill()
	c.launcher = nil
}

// Compile opens the file in a new tab, waits for load and math typesetting,
// then prints it to <outDir>/<name>.pdf.
func (c *Chrome) Compile(ctx context.Context, path, outDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := c.ensureBrowser(); err != nil {
		return "", err
	}

	page, err := c.browser.Page(proto.TargetCreateTarget{URL: "file://" + filepath.ToSlash(abs)})
	if err != nil {
		return "", fmt.Errorf("%w: opening page: %v", ErrCompilerFailed, err)
	}
	defer page.Close()

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return "", context.DeadlineExceeded
		}
	}
	page = page.Context(ctx).Timeout(timeout)

	if err := page.WaitLoad(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: loading page: %v", ErrCompilerFailed, err)
	}
	// MathJax loads from a CDN; render the raw TeX when it is unreachable.
	_, _ = page.Eval(mathJaxReady)

	reader, err := page.PDF(printOptions())
	if err != nil {
		return "", fmt.Errorf("%w: printing: %v", ErrCompilerFailed, err)
	}
	pdfPath := filepath.Join(outDir, fileutil.ReplaceExt(filepath.Base(path), "pdf"))
	if err := writeStream(pdfPath, reader); err != nil {
		return "", err
	}
	return pdfPath, nil
}

func printOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(a4WidthInches),
		PaperHeight:     floatPtr(a4HeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
