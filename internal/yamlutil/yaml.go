// Package yamlutil wraps YAML parsing to isolate the external dependency.
// Config files and Markdown front matter both go through here.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// frontMatterDelimiter opens and closes a YAML front matter block.
const frontMatterDelimiter = "---\n"

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// FrontMatter renders v as a "---" delimited YAML block ready to prefix a
// Markdown document.
func FrontMatter(v any) (string, error) {
	body, err := Marshal(v)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelimiter)
	buf.Write(body)
	if !bytes.HasSuffix(body, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(frontMatterDelimiter)
	return buf.String(), nil
}

// SplitFrontMatter separates a leading YAML front matter block from the rest
// of a document. ok is false when the document has no front matter.
func SplitFrontMatter(doc []byte) (meta, body []byte, ok bool) {
	if !bytes.HasPrefix(doc, []byte(frontMatterDelimiter)) {
		return nil, doc, false
	}
	rest := doc[len(frontMatterDelimiter):]
	end := bytes.Index(rest, []byte("\n"+frontMatterDelimiter))
	if end < 0 {
		return nil, doc, false
	}
	return rest[:end+1], rest[end+1+len(frontMatterDelimiter):], true
}
