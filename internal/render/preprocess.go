package render

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-texgen/internal/latex"
)

// Placeholders use Unicode Private Use Area characters, which pass through
// goldmark unchanged and never occur in real input.
const (
	markStart = "\uE000" // U+E000
	markEnd   = "\uE001" // U+E001
	mathStart = "\uE002" // U+E002
	mathEnd   = "\uE003" // U+E003
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.*?)==`)
	mathToken          = regexp.MustCompile(mathStart + `(\d+)` + mathEnd)
	placeholderChars   = strings.NewReplacer(markStart, "", markEnd, "", mathStart, "", mathEnd, "")
)

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to one.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// protectMath swaps every math span for a numbered token so that Markdown
// emphasis rules cannot touch it. restoreMath puts the spans back.
func protectMath(content string) (string, []string) {
	var sb strings.Builder
	var spans []string
	for _, seg := range latex.SplitMath(content) {
		if !seg.Math {
			sb.WriteString(seg.Text)
			continue
		}
		sb.WriteString(mathStart + strconv.Itoa(len(spans)) + mathEnd)
		spans = append(spans, seg.Text)
	}
	return sb.String(), spans
}

// restoreMath expands tokens into HTML-escaped math source for MathJax.
func restoreMath(content string, spans []string) string {
	return mathToken.ReplaceAllStringFunc(content, func(tok string) string {
		i, err := strconv.Atoi(tok[len(mathStart) : len(tok)-len(mathEnd)])
		if err != nil || i >= len(spans) {
			return tok
		}
		return html.EscapeString(spans[i])
	})
}

// convertHighlights transforms ==text== to placeholder markers, turned into
// <mark> tags after goldmark so raw HTML rendering stays disabled.
func convertHighlights(content string) string {
	return highlightPattern.ReplaceAllString(content, markStart+"$1"+markEnd)
}

func convertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(strings.ReplaceAll(content, markStart, "<mark>"), markEnd, "</mark>")
}

// preprocessMarkdown prepares generated Markdown for goldmark.
func preprocessMarkdown(content string) (string, []string) {
	content = placeholderChars.Replace(normalizeLineEndings(content))
	content, spans := protectMath(content)
	content = convertHighlights(content)
	return compressBlankLines(content), spans
}

// postprocessHTML finalizes goldmark output.
func postprocessHTML(content string, spans []string) string {
	return restoreMath(convertMarkPlaceholders(content), spans)
}
