package latex

import (
	"regexp"
	"strings"
)

// Typographic markers produced by Normalize. Both are treated as final:
// running Normalize again never rewrites them.
const (
	EmDash   = "---"
	Ellipsis = `\ldots{}`
)

var (
	hyphenRun = regexp.MustCompile(`-+`)
	periodRun = regexp.MustCompile(`\.+`)

	smartPunctuation = strings.NewReplacer(
		"“", `"`, // left double quotation mark
		"”", `"`, // right double quotation mark
		"„", `"`, // double low-9 quotation mark
		"‘", "'", // left single quotation mark
		"’", "'", // right single quotation mark
		"‚", "'", // single low-9 quotation mark
		"—", EmDash,
		"…", Ellipsis,
	)
)

// Normalize fixes typographic artifacts left by language models.
// Curly quotes become straight quotes, a standalone "--" becomes an em-dash
// and a standalone "..." becomes an ellipsis. Longer hyphen or period runs are
// left alone. Normalize is idempotent.
func Normalize(text string) string {
	text = smartPunctuation.Replace(text)
	text = hyphenRun.ReplaceAllStringFunc(text, func(run string) string {
		if len(run) == 2 {
			return EmDash
		}
		return run
	})
	return periodRun.ReplaceAllStringFunc(text, func(run string) string {
		if len(run) == 3 {
			return Ellipsis
		}
		return run
	})
}
