package textutils

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\n?(.*?)\n?```$")

// CleanCompletion normalizes raw LLM output before it is persisted or shown:
// strips invisible Unicode markers, unwraps a fenced code block or a fully
// quoted paragraph, and trims surrounding whitespace.
func CleanCompletion(input string) string {
	input = strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '\uFEFF', '\u200B', '\u200C', '\u200D':
			return -1 // BOM, zero-width space, ZWNJ, ZWJ
		}
		return r
	}, input))

	if match := fenceRe.FindStringSubmatch(input); len(match) > 1 {
		input = strings.TrimSpace(match[1])
	}

	if len(input) >= 2 && strings.HasPrefix(input, `"`) && strings.HasSuffix(input, `"`) &&
		!strings.Contains(input[1:len(input)-1], `"`) {
		input = input[1 : len(input)-1]
	}

	return strings.TrimSpace(input)
}

// FirstNonEmptyLine returns the first line of s with content, for log previews.
func FirstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
