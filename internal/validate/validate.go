// Package validate checks generated entries against the structural schema
// of their prompt type.
//
// A schema is a list of markers. Each marker can be spelled in LaTeX,
// Markdown or HTML, so one schema serves every output format. Validation is
// pure: it inspects the given contents only.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrValidationFailed wraps the reason returned by Check.
var ErrValidationFailed = errors.New("validation failed")

// Marker is one required structural element.
type Marker struct {
	Name     string
	spelling []*regexp.Regexp
}

// Found reports whether any spelling of the marker occurs in contents.
func (m Marker) Found(contents string) bool {
	for _, re := range m.spelling {
		if re.MatchString(contents) {
			return true
		}
	}
	return false
}

// heading matches a subsection heading (level 2 or deeper) whose text
// contains any of words, in each output format. The level-1 title never
// counts; titledSection checks it.
func heading(name string, words ...string) Marker {
	alt := make([]string, len(words))
	for i, w := range words {
		alt[i] = regexp.QuoteMeta(w)
	}
	word := "(?:" + strings.Join(alt, "|") + ")"
	return Marker{
		Name: name,
		spelling: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\\(?:sub)+section\*?\{[^}\n]*` + word),
			regexp.MustCompile(`(?im)^#{2,6}[ \t]+.*` + word),
			regexp.MustCompile(`(?i)<h[2-6][^>]*>[^<]*` + word),
		},
	}
}

// numbered matches a heading that starts with "n.".
func numbered(n int) Marker {
	num := fmt.Sprintf(`%d\.`, n)
	return Marker{
		Name: fmt.Sprintf("section %d.", n),
		spelling: []*regexp.Regexp{
			regexp.MustCompile(`\\(?:sub)*section\*?\{\s*` + num),
			regexp.MustCompile(`(?m)^#{1,6}[ \t]+` + num),
			regexp.MustCompile(`<h[1-6][^>]*>\s*` + num),
		},
	}
}

var (
	titledSection = Marker{
		Name: "titled section",
		spelling: []*regexp.Regexp{
			regexp.MustCompile(`\\section\*?\{[^}\s]`),
			regexp.MustCompile(`(?m)^#[ \t]+\S`),
			regexp.MustCompile(`<h1[^>]*>\s*[^<\s]`),
		},
	}

	alignedBlock = Marker{
		Name: "aligned equation block",
		spelling: []*regexp.Regexp{
			regexp.MustCompile(`\\begin\{(?:align|aligned|alignat)\*?\}`),
		},
	}
)

// schemas maps each prompt type to its required markers.
var schemas = map[string][]Marker{
	"definition": {
		titledSection,
		heading("Definition", "Definition"),
		heading("Worked Example", "Worked Example"),
		heading("Common Pitfalls", "Common Pitfalls"),
	},
	"abstract": {
		numbered(1),
		numbered(2),
		numbered(3),
		numbered(4),
	},
	"computation": {
		alignedBlock,
		heading("Worked Example", "Worked Example"),
		heading("Common Mistakes or Common Pitfalls", "Common Mistakes", "Common Pitfalls"),
	},
}

// Types returns the prompt types that have a schema, sorted.
func Types() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks contents against the schema for promptType. On failure the
// reason names every missing marker. An unknown prompt type always fails.
func Validate(contents, promptType string) (ok bool, reason string) {
	markers, known := schemas[promptType]
	if !known {
		return false, fmt.Sprintf("unknown prompt type %q", promptType)
	}

	var missing []string
	for _, m := range markers {
		if !m.Found(contents) {
			missing = append(missing, m.Name)
		}
	}
	if len(missing) > 0 {
		return false, "missing " + strings.Join(missing, ", ")
	}
	return true, ""
}

// Check is Validate returning an error wrapping ErrValidationFailed.
func Check(contents, promptType string) error {
	if ok, reason := Validate(contents, promptType); !ok {
		return fmt.Errorf("%w: %s", ErrValidationFailed, reason)
	}
	return nil
}
