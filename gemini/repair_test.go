package gemini_test

import (
	"testing"

	"github.com/fwojciec/eventscrape"
	"github.com/fwojciec/eventscrape/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormed = `{"title": "Go Meetup", "description": "Monthly meetup", "start_datetime": "2026-03-01T18:00:00", "end_datetime": null, "location": "Warsaw"}`

func TestParseEventJSON_WellFormed(t *testing.T) {
	t.Parallel()

	rec, err := gemini.ParseEventJSON(wellFormed)

	require.NoError(t, err)
	require.NotNil(t, rec.Title)
	assert.Equal(t, "Go Meetup", *rec.Title)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Warsaw", *rec.Location)
	assert.Nil(t, rec.EndDatetime)
}

// The same payload must parse identically whether or not the model wrapped it
// in a markdown code fence.
func TestParseEventJSON_FenceEquivalence(t *testing.T) {
	t.Parallel()

	plain, err := gemini.ParseEventJSON(wellFormed)
	require.NoError(t, err)

	fenced, err := gemini.ParseEventJSON("```json\n" + wellFormed + "\n```")
	require.NoError(t, err)

	assert.Equal(t, plain, fenced)
}

func TestParseEventJSON_ObjectEmbeddedInProse(t *testing.T) {
	t.Parallel()

	text := "Here is the extracted event:\n" + wellFormed + "\nLet me know if you need anything else."

	rec, err := gemini.ParseEventJSON(text)

	require.NoError(t, err)
	require.NotNil(t, rec.Title)
	assert.Equal(t, "Go Meetup", *rec.Title)
}

func TestParseEventJSON_TrailingComma(t *testing.T) {
	t.Parallel()

	text := `{"title": "Go Meetup", "description": null, "start_datetime": null, "end_datetime": null, "location": "Warsaw",}`

	rec, err := gemini.ParseEventJSON(text)

	require.NoError(t, err)
	require.NotNil(t, rec.Title)
	assert.Equal(t, "Go Meetup", *rec.Title)
}

func TestParseEventJSON_SingleElementArray(t *testing.T) {
	t.Parallel()

	rec, err := gemini.ParseEventJSON("[" + wellFormed + "]")

	require.NoError(t, err)
	require.NotNil(t, rec.Title)
	assert.Equal(t, "Go Meetup", *rec.Title)
}

func TestParseEventJSON_SalvagesFieldsFromBrokenJSON(t *testing.T) {
	t.Parallel()

	// Unbalanced braces defeat both direct parsing and substring extraction.
	text := `{{"title": "Go Meetup", "location": "Warsaw", "start_datetime": null`

	rec, err := gemini.ParseEventJSON(text)

	require.NoError(t, err)
	require.NotNil(t, rec.Title)
	assert.Equal(t, "Go Meetup", *rec.Title)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Warsaw", *rec.Location)
	assert.Nil(t, rec.StartDatetime)
}

func TestParseEventJSON_EmptyResponse(t *testing.T) {
	t.Parallel()

	_, err := gemini.ParseEventJSON("   \n  ")

	require.Error(t, err)
	assert.Equal(t, eventscrape.EUNPROCESSABLE, eventscrape.ErrorCode(err))
	assert.Contains(t, eventscrape.ErrorMessage(err), "empty response")
}

func TestParseEventJSON_NoJSONAtAll(t *testing.T) {
	t.Parallel()

	_, err := gemini.ParseEventJSON("I could not find any event information on this page.")

	require.Error(t, err)
	assert.Equal(t, eventscrape.EUNPROCESSABLE, eventscrape.ErrorCode(err))
}

func TestParseEventJSON_NonObjectJSON(t *testing.T) {
	t.Parallel()

	_, err := gemini.ParseEventJSON(`"just a string"`)

	require.Error(t, err)
	assert.Equal(t, eventscrape.EUNPROCESSABLE, eventscrape.ErrorCode(err))
}

func TestStripCodeFence_NoFence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"title": null}`, gemini.StripCodeFence(`{"title": null}`))
}

func TestStripCodeFence_FenceWithoutLanguageTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"title": null}`, gemini.StripCodeFence("```\n{\"title\": null}\n```"))
}

func TestCleanJSON_RemovesNewlinesAndTrailingCommas(t *testing.T) {
	t.Parallel()

	in := "{\"title\": \"a\",\n\"location\": \"b\",\n}"

	assert.JSONEq(t, `{"title": "a", "location": "b"}`, gemini.CleanJSON(in))
}

func TestSalvageFields_EscapedQuotesInValues(t *testing.T) {
	t.Parallel()

	text := `"title": "The \"Big\" Event", "location": "Hall A"`

	rec, ok := gemini.SalvageFields(text)

	require.True(t, ok)
	require.NotNil(t, rec.Title)
	assert.Equal(t, `The "Big" Event`, *rec.Title)
}

func TestSalvageFields_NothingToSalvage(t *testing.T) {
	t.Parallel()

	_, ok := gemini.SalvageFields("no fields here")

	assert.False(t, ok)
}
