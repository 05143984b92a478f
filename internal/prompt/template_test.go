package prompt

import "testing"

// ---------------------------------------------------------------------------
// TestRender - Permissive placeholder substitution
// ---------------------------------------------------------------------------

func TestRender(t *testing.T) {
	t.Parallel()

	fields := map[string]string{
		"domain":   "Mathematics",
		"topic":    "Algebra",
		"subtopic": "Group Theory",
		"price":    "$5",
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "braced placeholders",
			text: "Write about ${subtopic} in ${domain}.",
			want: "Write about Group Theory in Mathematics.",
		},
		{
			name: "bare placeholders",
			text: "$topic / $subtopic",
			want: "Algebra / Group Theory",
		},
		{
			name: "unknown placeholder untouched",
			text: "Hello ${audience} and $reader",
			want: "Hello ${audience} and $reader",
		},
		{
			name: "double dollar escapes",
			text: "Costs $$10 in $domain",
			want: "Costs $10 in Mathematics",
		},
		{
			name: "lone dollar untouched",
			text: "Use $...$ for math and $ alone",
			want: "Use $...$ for math and $ alone",
		},
		{
			name: "identifier ends at non-word char",
			text: "$topic-level",
			want: "Algebra-level",
		},
		{
			name: "longer identifier is a different key",
			text: "$topics",
			want: "$topics",
		},
		{
			name: "values are not rescanned",
			text: "${price} and $$domain",
			want: "$5 and $domain",
		},
		{
			name: "malformed brace left alone",
			text: "${ domain } ${domain",
			want: "${ domain } ${domain",
		},
		{
			name: "no placeholders",
			text: "plain text",
			want: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Render(tt.text, fields); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestRender_NilFields(t *testing.T) {
	t.Parallel()

	text := "Keep ${domain} and $$"
	if got := Render(text, nil); got != "Keep ${domain} and $" {
		t.Errorf("Render(nil) = %q", got)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	if FileTemplate("x").Kind.String() != "file" || InlineTemplate("x").Kind.String() != "inline" {
		t.Error("unexpected Kind.String()")
	}
	if Kind(99).String() != "unknown" {
		t.Error("Kind(99).String() should be unknown")
	}
}
