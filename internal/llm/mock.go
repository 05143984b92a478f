package llm

import (
	"context"
	"strings"
)

// Mock is an offline backend for smoke runs. It answers with a Markdown
// document built from the headings found in the prompt, so the output has
// the structure the prompt asked for.
type Mock struct{}

func (Mock) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	wantAlign := strings.Contains(prompt, `\begin{align}`)
	headings := 0

	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		level := len(line) - len(strings.TrimLeft(line, "#"))
		if level > 3 || len(line) == level || line[level] != ' ' {
			continue
		}
		headings++
		sb.WriteString(line)
		sb.WriteString("\n\n")
		if level == 1 {
			continue
		}
		sb.WriteString("Placeholder text for **")
		sb.WriteString(strings.TrimSpace(line[level:]))
		sb.WriteString("**, with inline math $a^2 + b^2 = c^2$.\n\n")
		if wantAlign {
			sb.WriteString("\\begin{align}\n  f(x) &= x^2 \\\\\n  f'(x) &= 2x\n\\end{align}\n\n")
			wantAlign = false
		}
	}

	if headings == 0 {
		sb.WriteString("Placeholder content generated offline.\n")
	}
	return sb.String(), nil
}
