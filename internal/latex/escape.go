package latex

import "regexp"

// SpecialChars maps each LaTeX special character to its escaped form.
// No replacement contains a character that would need escaping again,
// which Escape relies on for its single pass.
var SpecialChars = map[string]string{
	`#`: `\#`,
	`$`: `\$`,
	`%`: `\%`,
	`&`: `\&`,
	`~`: `\textasciitilde{}`,
	`_`: `\_`,
	`^`: `\textasciicircum{}`,
	`\`: `\textbackslash{}`,
	`{`: `\{`,
	`}`: `\}`,
	`|`: `\textbar{}`,
	`<`: `\textless{}`,
	`>`: `\textgreater{}`,
}

// specialCharPattern is one alternation over every key of SpecialChars.
var specialCharPattern = regexp.MustCompile(`[#$%&~_^\\{}|<>]`)

// Escape replaces every LaTeX special character in text with its escape
// sequence. All characters are matched in a single pass over the input, so
// backslashes and braces introduced by one replacement are never escaped again.
func Escape(text string) string {
	return specialCharPattern.ReplaceAllStringFunc(text, func(c string) string {
		return SpecialChars[c]
	})
}
