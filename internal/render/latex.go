package render

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/alnah/go-texgen/internal/assets"
	"github.com/alnah/go-texgen/internal/latex"
)

// LaTeX renders entries as standalone .tex documents.
type LaTeX struct {
	wrapper *template.Template
}

// NewLaTeX parses the "latex" wrapper from loader.
func NewLaTeX(loader assets.AssetLoader) (*LaTeX, error) {
	text, err := loader.LoadWrapper(assets.WrapperLaTeX)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(assets.WrapperLaTeX).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing latex wrapper: %v", ErrWrap, err)
	}
	return &LaTeX{wrapper: tmpl}, nil
}

func (*LaTeX) Format() string    { return FormatLaTeX }
func (*LaTeX) Extension() string { return "tex" }

func (l *LaTeX) Render(ctx context.Context, meta Meta, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data := struct {
		Meta
		Body string
	}{
		Meta: meta.oneLine(),
		Body: strings.TrimSpace(latex.Convert(markdown)),
	}

	var sb strings.Builder
	if err := l.wrapper.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrap, err)
	}
	return sb.String(), nil
}

var _ Renderer = (*LaTeX)(nil)
