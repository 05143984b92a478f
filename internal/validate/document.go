package validate

import "strings"

// Document performs the basic sanity check applied to every LaTeX source
// before compilation: not blank, and either a full document or at least
// one unnumbered section.
func Document(contents string) (ok bool, reason string) {
	if strings.TrimSpace(contents) == "" {
		return false, "empty file"
	}
	if !strings.Contains(contents, `\documentclass`) && !strings.Contains(contents, `\section*{`) {
		return false, `missing \documentclass or \section*{}`
	}
	return true, ""
}

// Source dispatches the basic check on the source file extension.
func Source(contents, ext string) (ok bool, reason string) {
	switch strings.TrimPrefix(ext, ".") {
	case "tex":
		return Document(contents)
	case "html":
		if strings.TrimSpace(contents) == "" {
			return false, "empty file"
		}
		lower := strings.ToLower(contents)
		if !strings.Contains(lower, "<html") && !strings.Contains(lower, "<body") {
			return false, "missing <html> or <body>"
		}
		return true, ""
	default:
		if strings.TrimSpace(contents) == "" {
			return false, "empty file"
		}
		return true, ""
	}
}
