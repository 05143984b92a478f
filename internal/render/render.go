// Package render turns generated Markdown into a complete output document
// in one of the supported formats.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-texgen/internal/assets"
)

// Formats.
const (
	FormatLaTeX    = "latex"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Sentinel errors for rendering.
var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrWrap          = errors.New("document wrapping failed")
)

// Meta describes the entry being rendered. It is embedded in the output so
// later stages can recover the prompt type without the topic table.
type Meta struct {
	Title      string `yaml:"title"`
	ID         string `yaml:"id"`
	Domain     string `yaml:"domain"`
	Topic      string `yaml:"topic"`
	PromptType string `yaml:"prompt_type"`
	Date       string `yaml:"date,omitempty"`
}

// Renderer converts Markdown to a finished document.
type Renderer interface {
	Format() string
	Extension() string
	Render(ctx context.Context, meta Meta, markdown string) (string, error)
}

// New returns the renderer for format, loading wrappers and styles through
// loader.
func New(format string, loader assets.AssetLoader) (Renderer, error) {
	switch format {
	case FormatLaTeX, "":
		return NewLaTeX(loader)
	case FormatHTML:
		return NewHTML(loader)
	case FormatMarkdown:
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// oneLine collapses line breaks so a value fits in a single-line header.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (m Meta) oneLine() Meta {
	return Meta{
		Title:      oneLine(m.Title),
		ID:         oneLine(m.ID),
		Domain:     oneLine(m.Domain),
		Topic:      oneLine(m.Topic),
		PromptType: oneLine(m.PromptType),
		Date:       oneLine(m.Date),
	}
}
