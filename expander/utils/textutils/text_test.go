package textutils

import "testing"

func TestCleanCompletion(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello there", "hello there"},
		{"surrounding whitespace", "  \n hello \n ", "hello"},
		{"fenced block", "```\nsome text\n```", "some text"},
		{"fenced block with language", "```markdown\nsome text\n```", "some text"},
		{"fully quoted", `"a quoted reply"`, "a quoted reply"},
		{"inner quotes kept", `she said "hi" to me`, `she said "hi" to me`},
		{"zero width stripped", "a\u200Bb\uFEFFc", "abc"},
		{"joiners stripped", "a\u200Cb\u200Dc", "abc"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanCompletion(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFirstNonEmptyLine(t *testing.T) {
	if got := FirstNonEmptyLine("\n\n  \n first real line\nsecond"); got != "first real line" {
		t.Errorf("got %q", got)
	}
	if got := FirstNonEmptyLine("  \n "); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
