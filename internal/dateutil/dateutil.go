// Package dateutil resolves the date stamped into generated entries.
//
// The config value is either empty (no date), a literal string, "auto" for
// today as YYYY-MM-DD, or "auto:LAYOUT" where LAYOUT is a preset name or a
// token layout such as "DD MMMM YYYY".
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidLayout indicates a date layout that cannot be used.
var ErrInvalidLayout = errors.New("invalid date layout")

// MaxLayoutLength bounds a token layout.
const MaxLayoutLength = 50

// DefaultLayout is used for a bare "auto".
const DefaultLayout = "YYYY-MM-DD"

// tokens maps layout tokens to reference-time components, longest first so
// that "MMMM" is not read as two "MM".
var tokens = [...]struct{ token, ref string }{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// Presets are named layouts accepted after "auto:", case-insensitively.
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// Layout converts a token layout to a time.Format layout. Text inside
// brackets is copied verbatim; other characters that are not tokens are
// kept as they are.
func Layout(layout string) (string, error) {
	switch {
	case layout == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidLayout)
	case len(layout) > MaxLayoutLength:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidLayout, MaxLayoutLength)
	}

	var out strings.Builder
	rest := layout
	for rest != "" {
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidLayout, len(layout)-len(rest))
			}
			out.WriteString(rest[1:end])
			rest = rest[end+1:]
			continue
		}
		n := consumeToken(&out, rest)
		if n == 0 {
			out.WriteByte(rest[0])
			n = 1
		}
		rest = rest[n:]
	}
	return out.String(), nil
}

// consumeToken writes the reference form of the token at the start of s and
// returns its length, or 0 when s does not start with a token.
func consumeToken(out *strings.Builder, s string) int {
	for _, t := range tokens {
		if strings.HasPrefix(s, t.token) {
			out.WriteString(t.ref)
			return len(t.token)
		}
	}
	return 0
}

// Resolve returns the date text for value at time t. Values that do not
// start with "auto" are returned unchanged, the empty string included.
func Resolve(value string, t time.Time) (string, error) {
	head, layout, hasLayout := strings.Cut(value, ":")
	if !strings.EqualFold(head, "auto") {
		if strings.HasPrefix(strings.ToLower(value), "auto") {
			return "", fmt.Errorf("%w: %q, use \"auto\" or \"auto:LAYOUT\"", ErrInvalidLayout, value)
		}
		return value, nil
	}

	if !hasLayout {
		layout = DefaultLayout
	} else if preset, ok := Presets[strings.ToLower(layout)]; ok {
		layout = preset
	}

	ref, err := Layout(layout)
	if err != nil {
		return "", err
	}
	return t.Format(ref), nil
}
