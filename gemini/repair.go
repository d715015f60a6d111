package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fwojciec/eventscrape"
)

// The repair chain tolerates a model that does not perfectly follow the
// prompt: fenced output, prose around the object, trailing commas, or no
// JSON at all. Each step is an ordered fallback; the first one that yields a
// record wins.

// eventKeys are the five required fields, in output order.
var eventKeys = []string{"title", "description", "start_datetime", "end_datetime", "location"}

// ParseEventJSON repairs raw model output into an EventRecord. The record is
// not yet normalized. Failure is an EUNPROCESSABLE error carrying the parse
// failure and the text that failed, for diagnostics only.
func ParseEventJSON(text string) (*eventscrape.EventRecord, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, eventscrape.Errorf(eventscrape.EUNPROCESSABLE, "empty response from model")
	}

	body := StripCodeFence(trimmed)

	rec, directErr := decodeRecord(body)
	if directErr == nil {
		return rec, nil
	}

	if obj, ok := ExtractJSONObject(body); ok {
		if rec, err := decodeRecord(CleanJSON(obj)); err == nil {
			return rec, nil
		}
	}

	if rec, ok := SalvageFields(body); ok {
		return rec, nil
	}

	return nil, eventscrape.Errorf(eventscrape.EUNPROCESSABLE,
		"failed to parse model response as JSON: %v (response: %.200s)", directErr, body)
}

// fenceRe matches a leading code fence with an optional language tag.
var fenceRe = regexp.MustCompile("^```[a-zA-Z]*\n?")

// StripCodeFence removes a surrounding fenced code block, if present.
func StripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = fenceRe.ReplaceAllString(s, "")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSONObject locates an object-shaped substring anchored on the
// presence of a "title" key. It spans the first opening brace through the
// last closing brace, which survives nested objects in field values.
func ExtractJSONObject(s string) (string, bool) {
	if !strings.Contains(s, `"title"`) {
		return "", false
	}
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first < 0 || last <= first {
		return "", false
	}
	return s[first : last+1], true
}

// trailingCommaRe matches a comma directly before a closing brace or bracket.
var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// CleanJSON applies light syntactic repair: embedded newlines become spaces
// and trailing commas before closing braces/brackets are removed.
func CleanJSON(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// salvageRes matches each field as either a quoted string or a bare null.
var salvageRes = func() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp, len(eventKeys))
	for _, key := range eventKeys {
		res[key] = regexp.MustCompile(`"` + key + `"\s*:\s*(?:(null)|"((?:[^"\\]|\\.)*)")`)
	}
	return res
}()

// SalvageFields performs field-by-field regex extraction, synthesizing a
// record from whatever was found. It reports false when no field matched.
func SalvageFields(s string) (*eventscrape.EventRecord, bool) {
	values := make(map[string]*string, len(eventKeys))
	found := false
	for _, key := range eventKeys {
		m := salvageRes[key].FindStringSubmatch(s)
		if m == nil {
			continue
		}
		found = true
		if m[1] == "null" {
			continue // field present but null
		}
		var v string
		if err := json.Unmarshal([]byte(`"`+m[2]+`"`), &v); err != nil {
			continue
		}
		values[key] = &v
	}
	if !found {
		return nil, false
	}
	return &eventscrape.EventRecord{
		Title:         values["title"],
		Description:   values["description"],
		StartDatetime: values["start_datetime"],
		EndDatetime:   values["end_datetime"],
		Location:      values["location"],
	}, true
}

// decodeRecord parses s as a JSON object (or a single-element array wrapping
// one) into an EventRecord. Field values must be strings or null.
func decodeRecord(s string) (*eventscrape.EventRecord, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}

	if list, ok := v.([]any); ok {
		if len(list) != 1 {
			return nil, fmt.Errorf("expected a JSON object, got an array of %d elements", len(list))
		}
		v = list[0]
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}

	rec := &eventscrape.EventRecord{}
	targets := map[string]**string{
		"title":          &rec.Title,
		"description":    &rec.Description,
		"start_datetime": &rec.StartDatetime,
		"end_datetime":   &rec.EndDatetime,
		"location":       &rec.Location,
	}
	for key, target := range targets {
		raw, ok := obj[key]
		if !ok || raw == nil {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("field %q is not a string", key)
		}
		*target = &str
	}
	return rec, nil
}
