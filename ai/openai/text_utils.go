package openai

import "strings"

// scrubString collapses runs of whitespace and trims the ends.
// Speech-to-text output is often padded with blank lines and repeated spaces.
func scrubString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanSummary strips wrapping that chat models tend to add around an answer.
func cleanSummary(s string) string {
	s = strings.TrimSpace(s)
	// Strip markdown code fences if present
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	for _, prefix := range []string{"Summary:", "summary:", "**Summary:**"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}
	return s
}
