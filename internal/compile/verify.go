package compile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"github.com/alnah/go-texgen/internal/fileutil"
)

// PageCount opens a PDF and returns its number of pages.
// A file that cannot be parsed, or has no pages, yields ErrInvalidPDF.
func PageCount(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidPDF, filepath.Base(path), err)
	}
	defer f.Close()

	n := r.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("%w: %s has no pages", ErrInvalidPDF, filepath.Base(path))
	}
	return n, nil
}

// writeStream drains r into path atomically.
func writeStream(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating pdf directory: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: reading PDF stream: %v", ErrCompilerFailed, err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}
