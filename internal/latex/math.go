package latex

import (
	"regexp"
	"strings"
)

// Segment is a slice of converter input: either a math span copied verbatim
// or literal text that still needs conversion.
type Segment struct {
	Text string
	Math bool
}

// displayEnvPattern matches the opening of math environments that LaTeX
// typesets on their own, such as \begin{align*}.
var displayEnvPattern = regexp.MustCompile(`^\\begin\{(align|equation|gather|multline|eqnarray|alignat|flalign)(\*?)\}`)

// SplitMath splits text into literal and math segments in order of
// appearance. Recognized spans are $...$, $$...$$, \(...\), \[...\] and display
// environments. A dollar sign that does not open a valid pair stays literal.
//
// Inline $...$ follows the usual Markdown math rules: the opening dollar must
// not be escaped or followed by whitespace, the closing dollar must not follow
// whitespace or precede a digit, and a blank line ends the search.
func SplitMath(text string) []Segment {
	var segs []Segment
	lit := 0
	for i := 0; i < len(text); {
		end := mathSpanEnd(text, i)
		if end < 0 {
			i++
			continue
		}
		if lit < i {
			segs = append(segs, Segment{Text: text[lit:i]})
		}
		segs = append(segs, Segment{Text: text[i:end], Math: true})
		i, lit = end, end
	}
	if lit < len(text) {
		segs = append(segs, Segment{Text: text[lit:]})
	}
	return segs
}

// mathSpanEnd returns the end offset of a math span starting at i, or -1.
func mathSpanEnd(text string, i int) int {
	switch text[i] {
	case '$':
		if isEscaped(text, i) {
			return -1
		}
		if strings.HasPrefix(text[i:], "$$") {
			j := strings.Index(text[i+2:], "$$")
			if j <= 0 {
				return -1
			}
			return i + 2 + j + 2
		}
		return inlineDollarEnd(text, i)
	case '\\':
		if isEscaped(text, i) {
			return -1
		}
		rest := text[i:]
		switch {
		case strings.HasPrefix(rest, `\[`):
			return closingEnd(text, i+2, `\]`)
		case strings.HasPrefix(rest, `\(`):
			return closingEnd(text, i+2, `\)`)
		}
		if m := displayEnvPattern.FindStringSubmatch(rest); m != nil {
			return closingEnd(text, i+len(m[0]), `\end{`+m[1]+m[2]+`}`)
		}
	}
	return -1
}

func inlineDollarEnd(text string, i int) int {
	if i+1 >= len(text) || isSpace(text[i+1]) || text[i+1] == '$' {
		return -1
	}
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '\n':
			if j+1 < len(text) && text[j+1] == '\n' {
				return -1
			}
		case '$':
			if isSpace(text[j-1]) {
				continue
			}
			if j+1 < len(text) && isDigit(text[j+1]) {
				continue
			}
			return j + 1
		}
	}
	return -1
}

func closingEnd(text string, from int, closing string) int {
	idx := strings.Index(text[from:], closing)
	if idx < 0 {
		return -1
	}
	return from + idx + len(closing)
}

// isEscaped reports whether the byte at i is preceded by an odd number of
// backslashes.
func isEscaped(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
