package gemini

import "strings"

// DefaultInstructions is used when the caller supplies no custom instructions.
const DefaultInstructions = "Extract all available event information."

// promptTemplate is the fixed instruction block. The two placeholders are
// substituted literally, so digest content containing braces or dollar signs
// can never be misread as template directives.
const promptTemplate = `Extract event information from the following content. Format the response as a single JSON object with exactly these fields:
{
    "title": "Event title (or null if not found)",
    "description": "Event description (or null if not found)",
    "start_datetime": "Start time in ISO 8601 format (or null if not found)",
    "end_datetime": "End time in ISO 8601 format (or null if not found)",
    "location": "Event location (or null if not found)"
}

If a field's information is not found, use null. Ensure datetime strings are in ISO 8601 format (YYYY-MM-DDTHH:MM:SS±HH:MM); when only a date is known, use 00:00:00 as the time. Preserve the full event description verbatim; do not summarize or shorten it.

Content to analyze:
{{content}}

{{custom_instructions}}`

// BuildPrompt assembles the extraction prompt from the digest and the
// caller's instructions.
func BuildPrompt(digest, customInstructions string) string {
	instructions := customInstructions
	if instructions == "" {
		instructions = DefaultInstructions
	}
	return strings.NewReplacer(
		"{{content}}", digest,
		"{{custom_instructions}}", instructions,
	).Replace(promptTemplate)
}
