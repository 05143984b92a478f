package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-texgen/internal/assets"
)

// HTML renders entries as standalone HTML pages with MathJax for math.
type HTML struct {
	md      goldmark.Markdown
	wrapper *template.Template
	style   string
}

// NewHTML builds the goldmark pipeline and parses the "html" wrapper and
// default style from loader.
func NewHTML(loader assets.AssetLoader) (*HTML, error) {
	text, err := loader.LoadWrapper(assets.WrapperHTML)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(assets.WrapperHTML).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing html wrapper: %v", ErrWrap, err)
	}
	style, err := loader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			// No WithUnsafe: math and highlights go through placeholders.
		),
	)

	return &HTML{md: md, wrapper: tmpl, style: style}, nil
}

func (*HTML) Format() string    { return FormatHTML }
func (*HTML) Extension() string { return "html" }

// Render converts markdown in a goroutine so a canceled ctx returns
// promptly; goldmark has no context support of its own.
func (h *HTML) Render(ctx context.Context, meta Meta, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		body string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		content, spans := preprocessMarkdown(markdown)
		var buf bytes.Buffer
		if err := h.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: converting markdown: %v", ErrWrap, err)}
			return
		}
		done <- result{body: postprocessHTML(buf.String(), spans)}
	}()

	var body string
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		body = r.body
	}

	data := struct {
		Meta
		Body  template.HTML
		Style template.CSS
	}{
		Meta: meta.oneLine(),
		// #nosec G203 -- goldmark output with raw HTML disabled
		Body:  template.HTML(strings.TrimSpace(body)),
		Style: template.CSS(h.style), // #nosec G203 -- embedded or operator-supplied stylesheet
	}

	var sb strings.Builder
	if err := h.wrapper.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrap, err)
	}
	return sb.String(), nil
}

var _ Renderer = (*HTML)(nil)
