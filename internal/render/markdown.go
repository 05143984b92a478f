package render

import (
	"context"
	"strings"

	"github.com/alnah/go-texgen/internal/yamlutil"
)

// Markdown keeps the generated Markdown and prefixes it with YAML front
// matter, ready for pandoc.
type Markdown struct{}

func NewMarkdown() *Markdown { return &Markdown{} }

func (*Markdown) Format() string    { return FormatMarkdown }
func (*Markdown) Extension() string { return "md" }

func (*Markdown) Render(ctx context.Context, meta Meta, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fm, err := yamlutil.FrontMatter(meta.oneLine())
	if err != nil {
		return "", err
	}
	body := strings.TrimSpace(normalizeLineEndings(markdown))
	return fm + "\n" + body + "\n", nil
}

var _ Renderer = (*Markdown)(nil)
