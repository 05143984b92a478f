package assets

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestValidateAssetName - Accepted and rejected stems
// ---------------------------------------------------------------------------

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
		errText string
	}{
		{name: "built-in prompt", input: PromptComputation},
		{name: "hyphen and underscore", input: "worked_example-v2"},
		{name: "mixed case", input: "Abstract"},
		{name: "max length", input: strings.Repeat("a", maxNameLength)},

		{name: "empty", input: "", wantErr: true, errText: "empty"},
		{name: "too long", input: strings.Repeat("a", maxNameLength+1), wantErr: true, errText: "longer than"},
		{name: "forward slash", input: "prompts/definition", wantErr: true, errText: `'/'`},
		{name: "backslash", input: `..\secret`, wantErr: true},
		{name: "traversal", input: "../../etc/passwd", wantErr: true, errText: "offset 0"},
		{name: "extension", input: "definition.txt", wantErr: true, errText: "offset 10"},
		{name: "space", input: "worked example", wantErr: true},
		{name: "non-ascii", input: "définition", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("ValidateAssetName(%q) unexpected error: %v", tt.input, err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidAssetName) {
				t.Fatalf("ValidateAssetName(%q) error = %v, want ErrInvalidAssetName", tt.input, err)
			}
			if tt.errText != "" && !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error %q should mention %q", err, tt.errText)
			}
		})
	}
}
