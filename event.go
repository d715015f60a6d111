package eventscrape

import (
	"regexp"
	"strings"
	"time"
)

// EventRecord is the structured result of an extraction. All five keys are
// always present in the serialized form; missing data is represented as null,
// never by omission.
type EventRecord struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	StartDatetime *string `json:"start_datetime"`
	EndDatetime   *string `json:"end_datetime"`
	Location      *string `json:"location"`
}

// noValueTokens are strings an LLM may return in place of an absent field.
var noValueTokens = map[string]struct{}{
	"":          {},
	"null":      {},
	"none":      {},
	"not found": {},
}

// Normalize coerces empty-ish field values to nil and trims whitespace from
// the rest. The two datetime fields are additionally rewritten into strict
// ISO-8601; a datetime that cannot be coerced is an EINVALID error.
func (r *EventRecord) Normalize() error {
	r.Title = normalizeField(r.Title)
	r.Description = normalizeField(r.Description)
	r.Location = normalizeField(r.Location)

	var err error
	if r.StartDatetime, err = normalizeDatetimeField(r.StartDatetime); err != nil {
		return err
	}
	if r.EndDatetime, err = normalizeDatetimeField(r.EndDatetime); err != nil {
		return err
	}
	return nil
}

func normalizeField(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if _, ok := noValueTokens[strings.ToLower(s)]; ok {
		return nil
	}
	return &s
}

func normalizeDatetimeField(v *string) (*string, error) {
	v = normalizeField(v)
	if v == nil {
		return nil, nil
	}
	s, err := NormalizeDatetime(*v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// isoDatetimeRe matches a strict ISO-8601 timestamp with optional fractional
// seconds and optional zone designator.
var isoDatetimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?$`)

// nearISOLayouts are the non-ISO layouts the boundary accepts and rewrites.
var nearISOLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04",
	"02-01-2006 15:04",
	"2006-01-02",
}

// NormalizeDatetime returns s unchanged when it is already a valid ISO-8601
// timestamp, rewrites a small set of near-ISO layouts into ISO-8601, and
// rejects everything else with EINVALID. A date without a time component
// becomes midnight.
func NormalizeDatetime(s string) (string, error) {
	if isoDatetimeRe.MatchString(s) {
		return s, nil
	}
	for _, layout := range nearISOLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02T15:04:05"), nil
		}
	}
	return "", Errorf(EINVALID, "invalid datetime format: %q", s)
}
