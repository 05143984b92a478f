// Package topics reads the topic table that drives a generation run.
package topics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel errors for topic table parsing.
var (
	ErrEmptyTable    = errors.New("topic table has no header row")
	ErrMissingColumn = errors.New("topic table is missing a required column")
)

// Column names recognized in the header row. Any other column is carried in
// Record.Extra and exposed to prompt templates.
const (
	ColumnID         = "id"
	ColumnSectionID  = "section_id"
	ColumnDomain     = "domain"
	ColumnTopic      = "topic"
	ColumnSubtopic   = "subtopic"
	ColumnPromptType = "prompt_type"
)

// Record is one row of the topic table.
type Record struct {
	ID         string
	Domain     string
	Topic      string
	Subtopic   string
	PromptType string
	Extra      map[string]string
	Row        int // 1-based data row, header excluded
}

// Fields returns every column of the record keyed by header name, suitable
// for prompt template substitution.
func (r Record) Fields() map[string]string {
	fields := make(map[string]string, len(r.Extra)+6)
	for k, v := range r.Extra {
		fields[k] = v
	}
	fields[ColumnID] = r.ID
	fields[ColumnDomain] = r.Domain
	fields[ColumnTopic] = r.Topic
	fields[ColumnSubtopic] = r.Subtopic
	fields[ColumnPromptType] = r.PromptType
	return fields
}

// Load reads the topic table at path.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path) // #nosec G304 -- data file path comes from config
	if err != nil {
		return nil, fmt.Errorf("opening topic table: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Read parses CSV with a header row. The identifier comes from the id column,
// or section_id when id is absent.
func Read(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		header[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	idColumn := ColumnID
	if _, ok := index[ColumnID]; !ok {
		idColumn = ColumnSectionID
	}
	var missing []string
	for _, col := range []string{idColumn, ColumnDomain, ColumnTopic, ColumnSubtopic} {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	known := map[string]bool{
		idColumn:         true,
		ColumnDomain:     true,
		ColumnTopic:      true,
		ColumnSubtopic:   true,
		ColumnPromptType: true,
	}

	var records []Record
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		rec := Record{
			ID:         cell(idColumn),
			Domain:     cell(ColumnDomain),
			Topic:      cell(ColumnTopic),
			Subtopic:   cell(ColumnSubtopic),
			PromptType: cell(ColumnPromptType),
			Extra:      map[string]string{},
			Row:        row,
		}
		for _, name := range header {
			if !known[name] && name != "" {
				rec.Extra[name] = cell(name)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
