package assets

import "fmt"

// maxNameLength bounds asset names; prompt types share the limit.
const maxNameLength = 64

// ValidateAssetName reports whether name can be used as an asset file stem.
// Only ASCII letters, digits, '-' and '_' are accepted, which rules out
// separators, extensions and traversal.
func ValidateAssetName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	case len(name) > maxNameLength:
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidAssetName, name, maxNameLength)
	}
	for i, r := range name {
		if !nameRune(r) {
			return fmt.Errorf("%w: %q has %q at offset %d", ErrInvalidAssetName, name, r, i)
		}
	}
	return nil
}

func nameRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}
