package scrape

import "strings"

// TruncationMarker is appended to a digest that was cut at the length bound.
const TruncationMarker = "... [Content truncated]"

// DefaultMaxDigestLength bounds the digest shown to the model.
const DefaultMaxDigestLength = 8000

// CollapseWhitespace trims every line and drops blank lines, so the digest
// carries no vertical padding into the prompt.
func CollapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Truncate cuts s to at most max runes and appends TruncationMarker when a
// cut occurred. The marker is not counted against max.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + TruncationMarker
}
