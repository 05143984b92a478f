// Package slug derives filesystem-safe identifiers and output paths from
// free-text topic fields.
package slug

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/alnah/go-texgen/internal/fileutil"
)

// MaxLength is the longest slug Slugify accepts.
const MaxLength = 64

// ErrInvalidSlug indicates text could not be turned into a usable slug.
var ErrInvalidSlug = errors.New("invalid slug")

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug       = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Slugify lower-cases text, collapses every run of characters outside
// [a-z0-9] into one hyphen and trims hyphens from both ends.
// Returns ErrInvalidSlug when the result is empty, longer than MaxLength,
// or somehow contains characters outside [a-z0-9-].
func Slugify(text string) (string, error) {
	s := nonAlphanumeric.ReplaceAllString(strings.ToLower(text), "-")
	s = strings.Trim(s, "-")

	switch {
	case s == "":
		return "", fmt.Errorf("%w: %q has no letters or digits", ErrInvalidSlug, text)
	case len(s) > MaxLength:
		return "", fmt.Errorf("%w: %q is %d characters (max %d)", ErrInvalidSlug, s, len(s), MaxLength)
	case !validSlug.MatchString(s):
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, s)
	}
	return s, nil
}

// Filename builds "{domain}-{topic}-{subtopic}.{ext}" from slugged fields.
func Filename(domain, topic, subtopic, ext string) (string, error) {
	if err := fileutil.ValidateExtension(ext); err != nil {
		return "", err
	}
	parts := make([]string, 0, 3)
	for _, field := range []struct{ name, value string }{
		{"domain", domain},
		{"topic", topic},
		{"subtopic", subtopic},
	} {
		s, err := Slugify(field.value)
		if err != nil {
			return "", fmt.Errorf("%s: %w", field.name, err)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "-") + "." + ext, nil
}

// DedupePath returns path when nothing exists there. Otherwise it probes
// stem-2.ext, stem-3.ext, ... and returns the first free candidate.
// The filesystem is only inspected, never modified.
func DedupePath(path string) string {
	if !exists(path) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := stem + "-" + strconv.Itoa(n) + ext
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
