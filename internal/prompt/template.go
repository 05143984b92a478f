// Package prompt resolves prompt templates by prompt type and renders them
// with topic fields.
package prompt

import (
	"regexp"
)

// Kind tags the source of a Template.
type Kind int

const (
	// KindFile templates are read from disk on first use.
	KindFile Kind = iota
	// KindInline templates carry their text directly.
	KindInline
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Template is either a file reference or inline text; Kind says which field
// is meaningful. Build one with FileTemplate or InlineTemplate.
type Template struct {
	Kind Kind
	Path string
	Text string
}

// FileTemplate references a template file on disk.
func FileTemplate(path string) Template {
	return Template{Kind: KindFile, Path: path}
}

// InlineTemplate wraps template text held in memory.
func InlineTemplate(text string) Template {
	return Template{Kind: KindInline, Text: text}
}

// placeholderPattern matches "$$", "$name" and "${name}". Names start with a
// letter or underscore and continue with letters, digits or underscores.
var placeholderPattern = regexp.MustCompile(`\$(?:\$|[_A-Za-z][_A-Za-z0-9]*|\{[_A-Za-z][_A-Za-z0-9]*\})`)

// Render substitutes known fields into text. "$$" yields a literal "$".
// Unknown placeholders and lone dollar signs are left untouched, so
// rendering never fails. Substituted values are not rescanned.
func Render(text string, fields map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		if match == "$$" {
			return "$"
		}
		name := match[1:]
		if name[0] == '{' {
			name = name[1 : len(name)-1]
		}
		if value, ok := fields[name]; ok {
			return value
		}
		return match
	})
}
