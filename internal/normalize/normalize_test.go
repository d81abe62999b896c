package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireSchema asserts the normalizer's totality guarantee: every required
// key is present and sequence-typed.
func requireSchema(t *testing.T, doc map[string]any) {
	t.Helper()
	for _, key := range RequiredKeys {
		require.Contains(t, doc, key, "document must contain key %q", key)
		assert.IsType(t, []any{}, doc[key], "key %q must hold a sequence", key)
	}
}

func TestTextDirectJSONObject(t *testing.T) {
	raw := `{"itinerary":[{"date":"2025-09-01"}],"restaurants":["a"],"attractions":[],"accommodations":[],"tips":["bring an umbrella"]}`

	result := Text(raw)

	require.False(t, result.IsDegraded())
	doc := result.Document()
	requireSchema(t, doc)
	assert.Equal(t, []any{"bring an umbrella"}, doc["tips"])
}

func TestTextFencedJSONBlock(t *testing.T) {
	raw := "Here is your personalized recommendation:\n" +
		"```json\n" +
		`{"itinerary":[],"restaurants":[],"attractions":[],"accommodations":[],"tips":["bring an umbrella"]}` + "\n" +
		"```\n" +
		"Enjoy your trip!"

	result := Text(raw)

	require.False(t, result.IsDegraded())
	doc := result.Document()
	requireSchema(t, doc)
	assert.Equal(t, []any{"bring an umbrella"}, doc["tips"])
}

func TestTextFencedBlockWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"tips\":[\"x\"]}\n```"

	result := Text(raw)

	require.False(t, result.IsDegraded())
	assert.Equal(t, []any{"x"}, result.Document()["tips"])
}

func TestTextUnfencedObjectInProse(t *testing.T) {
	raw := "The coordinator produced the following plan: " +
		`{"itinerary":[{"date":"2025-09-01","schedule":[]}]}` +
		" which covers the whole stay."

	result := Text(raw)

	require.False(t, result.IsDegraded())
	doc := result.Document()
	requireSchema(t, doc)
	itinerary, ok := doc["itinerary"].([]any)
	require.True(t, ok)
	assert.Len(t, itinerary, 1)
}

func TestTextFencedBlockWinsOverLaterObject(t *testing.T) {
	raw := "```json\n{\"tips\":[\"from fence\"]}\n```\n" +
		`{"tips":["from prose"]}`

	result := Text(raw)

	require.False(t, result.IsDegraded())
	assert.Equal(t, []any{"from fence"}, result.Document()["tips"])
}

func TestTextFillsMissingAndNullKeys(t *testing.T) {
	raw := `{"itinerary":null,"restaurants":["sushi bar"]}`

	result := Text(raw)

	require.False(t, result.IsDegraded())
	doc := result.Document()
	requireSchema(t, doc)
	assert.Equal(t, []any{}, doc["itinerary"], "null key should become an empty sequence")
	assert.Equal(t, []any{"sushi bar"}, doc["restaurants"])
}

func TestTextPlainProseDegrades(t *testing.T) {
	raw := "I am terribly sorry, but I could not produce a structured plan this time."

	result := Text(raw)

	require.True(t, result.IsDegraded())
	payload := result.Degraded()
	require.NotNil(t, payload)
	assert.Contains(t, payload.Error, "no structured data")
	assert.Equal(t, raw, payload.Summary)

	doc := result.Document()
	requireSchema(t, doc)
	assert.Equal(t, payload.Error, doc["error"])
	for _, key := range RequiredKeys {
		assert.Empty(t, doc[key])
	}
}

func TestTextMalformedJSONDegrades(t *testing.T) {
	raw := "```json\n{\"itinerary\": [unquoted]}\n```"

	result := Text(raw)

	require.True(t, result.IsDegraded())
	assert.Contains(t, result.Degraded().Error, "failed to parse")
	requireSchema(t, result.Document())
}

func TestTextEmptyInputDegrades(t *testing.T) {
	result := Text("")

	require.True(t, result.IsDegraded())
	assert.Equal(t, "", result.Degraded().Summary)
	requireSchema(t, result.Document())
}

func TestTextSummaryTruncation(t *testing.T) {
	raw := strings.Repeat("a", 800)

	result := Text(raw)

	require.True(t, result.IsDegraded())
	summary := result.Degraded().Summary
	assert.Len(t, summary, 503, "500 characters plus ellipsis")
	assert.True(t, strings.HasSuffix(summary, "..."))
}

func TestTextJSONArrayOnlyDegrades(t *testing.T) {
	// A bare array has no brace-delimited span and carries no top-level
	// object to patch, so it degrades rather than guessing a shape.
	result := Text(`["tip one", "tip two"]`)

	require.True(t, result.IsDegraded())
	requireSchema(t, result.Document())
}
