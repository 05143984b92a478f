package render

import (
	"bufio"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alnah/go-texgen/internal/yamlutil"
)

var htmlMetaPattern = regexp.MustCompile(`<meta name="texgen:([a-z-]+)" content="([^"]*)"`)

// ReadMeta recovers the entry metadata embedded by a renderer. The format is
// chosen from the file extension of name. ok is false when no metadata
// header was found.
func ReadMeta(name, contents string) (meta Meta, ok bool) {
	switch strings.TrimPrefix(filepath.Ext(name), ".") {
	case "tex":
		return readLaTeXMeta(contents)
	case "html":
		return readHTMLMeta(contents)
	case "md":
		return readMarkdownMeta(contents)
	default:
		return Meta{}, false
	}
}

// readLaTeXMeta parses the leading "% Key: value" comment block.
func readLaTeXMeta(contents string) (Meta, bool) {
	var meta Meta
	found := false
	sc := bufio.NewScanner(strings.NewReader(contents))
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "%") {
			break
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "%"))
		key, value, hasColon := strings.Cut(line, ":")
		value = strings.TrimSpace(value)
		switch {
		case hasColon && key == "ID":
			meta.ID, found = value, true
		case hasColon && key == "Domain":
			meta.Domain, found = value, true
		case hasColon && key == "Topic":
			meta.Topic, found = value, true
		case hasColon && key == "Prompt Type":
			meta.PromptType, found = value, true
		case hasColon && key == "Date":
			meta.Date, found = value, true
		case hasColon && key == "Title":
			meta.Title, found = value, true
		case first:
			meta.Title = line
		}
		first = false
	}
	return meta, found
}

func readHTMLMeta(contents string) (Meta, bool) {
	var meta Meta
	found := false
	for _, m := range htmlMetaPattern.FindAllStringSubmatch(contents, -1) {
		value := html.UnescapeString(m[2])
		switch m[1] {
		case "id":
			meta.ID = value
		case "domain":
			meta.Domain = value
		case "topic":
			meta.Topic = value
		case "prompt-type":
			meta.PromptType = value
		case "date":
			meta.Date = value
		default:
			continue
		}
		found = true
	}
	if start := strings.Index(contents, "<title>"); start >= 0 {
		rest := contents[start+len("<title>"):]
		if end := strings.Index(rest, "</title>"); end >= 0 {
			meta.Title = html.UnescapeString(rest[:end])
		}
	}
	return meta, found
}

func readMarkdownMeta(contents string) (Meta, bool) {
	raw, _, ok := yamlutil.SplitFrontMatter([]byte(normalizeLineEndings(contents)))
	if !ok {
		return Meta{}, false
	}
	var meta Meta
	if err := yamlutil.Unmarshal(raw, &meta); err != nil {
		return Meta{}, false
	}
	return meta, true
}
