package latex

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholders use Unicode Private Use Area characters so they survive
// normalization and escaping untouched.
const (
	placeholderStart = "\uE000" // U+E000: Private Use Area start
	placeholderEnd   = "\uE001" // U+E001: Private Use Area end
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	placeholderChars   = strings.NewReplacer(placeholderStart, "", placeholderEnd, "")
	placeholderPattern = regexp.MustCompile(placeholderStart + `([0-9]+)` + placeholderEnd)

	headingPattern = regexp.MustCompile(`(?m)^(#{1,3})[ \t]+(.+?)(?:[ \t]+#+)?[ \t]*$`)
	codePattern    = regexp.MustCompile("`([^`\n]+)`")
	boldPattern    = regexp.MustCompile(`\*\*((?:[^\n]|\n[^\n])+?)\*\*`) // never spans a blank line
	italicPattern  = regexp.MustCompile(`\*([^*\s](?:[^*\n]*[^*\s])?)\*`)
)

// headingCommands is indexed by heading level minus one.
var headingCommands = [...]string{`\section*{`, `\subsection*{`, `\subsubsection*{`}

// Convert turns Markdown into LaTeX body text. Math spans are copied through
// byte for byte; literal text gets Markdown substitutions, then Normalize,
// then Escape.
//
// Inline code is taken out before math detection so a dollar sign inside
// backticks never opens a math span. Code content is escaped but not
// normalized.
func Convert(text string) string {
	text = crlfOrCR.ReplaceAllString(text, "\n")
	text = placeholderChars.Replace(text)

	var s stash
	text = codePattern.ReplaceAllStringFunc(text, func(m string) string {
		return s.put(`\texttt{` + Escape(m[1:len(m)-1]) + `}`)
	})

	var b strings.Builder
	for _, seg := range SplitMath(text) {
		if seg.Math {
			b.WriteString(s.put(seg.Text))
			continue
		}
		b.WriteString(seg.Text)
	}
	text = b.String()

	text = substituteMarkdown(text, &s)
	text = Normalize(text)
	text = strings.ReplaceAll(text, Ellipsis, s.put(Ellipsis))
	text = Escape(text)
	return s.expand(text)
}

// substituteMarkdown replaces headings, bold and italic markers with LaTeX
// commands. Bold runs before italic so "**" is never read as two italics.
// Only the command tokens are stashed; the enclosed text stays inline and is
// normalized and escaped with the rest.
func substituteMarkdown(text string, s *stash) string {
	text = headingPattern.ReplaceAllStringFunc(text, func(line string) string {
		m := headingPattern.FindStringSubmatch(line)
		return s.put(headingCommands[len(m[1])-1]) + m[2] + s.put("}")
	})
	text = boldPattern.ReplaceAllStringFunc(text, func(m string) string {
		return s.put(`\textbf{`) + m[2:len(m)-2] + s.put("}")
	})
	return italicPattern.ReplaceAllStringFunc(text, func(m string) string {
		return s.put(`\textit{`) + m[1:len(m)-1] + s.put("}")
	})
}

// stash holds finished LaTeX fragments referenced by placeholders.
type stash []string

func (s *stash) put(fragment string) string {
	*s = append(*s, fragment)
	return placeholderStart + strconv.Itoa(len(*s)-1) + placeholderEnd
}

func (s stash) expand(text string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		idx, err := strconv.Atoi(m[len(placeholderStart) : len(m)-len(placeholderEnd)])
		if err != nil || idx >= len(s) {
			return ""
		}
		return s[idx]
	})
}
