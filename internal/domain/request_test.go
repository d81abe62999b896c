package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministicUnderKeyPermutation(t *testing.T) {
	// Decode the same request from two JSON documents with different
	// object-key orderings.
	docA := `{
		"destination": "Tokyo",
		"start_date": "2025-09-01",
		"end_date": "2025-09-07",
		"preferences": {"budget": "medium", "style": "food", "pace": {"b": 2, "a": 1}}
	}`
	docB := `{
		"preferences": {"pace": {"a": 1, "b": 2}, "style": "food", "budget": "medium"},
		"end_date": "2025-09-07",
		"destination": "Tokyo",
		"start_date": "2025-09-01"
	}`

	var reqA, reqB TravelRequest
	require.NoError(t, json.Unmarshal([]byte(docA), &reqA))
	require.NoError(t, json.Unmarshal([]byte(docB), &reqB))

	hashA, err := reqA.Fingerprint()
	require.NoError(t, err)
	hashB, err := reqB.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB, "fingerprint must not depend on key ordering")
}

func TestFingerprintNormalizesAbsentPreferences(t *testing.T) {
	withNil := TravelRequest{Destination: "Tokyo", StartDate: "2025-09-01", EndDate: "2025-09-07"}
	withEmpty := TravelRequest{
		Destination: "Tokyo",
		StartDate:   "2025-09-01",
		EndDate:     "2025-09-07",
		Preferences: map[string]any{},
	}

	hashNil, err := withNil.Fingerprint()
	require.NoError(t, err)
	hashEmpty, err := withEmpty.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, hashNil, hashEmpty)
}

func TestFingerprintDistinguishesSemanticFields(t *testing.T) {
	base := TravelRequest{Destination: "Tokyo", StartDate: "2025-09-01", EndDate: "2025-09-07"}

	variants := []TravelRequest{
		{Destination: "Kyoto", StartDate: "2025-09-01", EndDate: "2025-09-07"},
		{Destination: "Tokyo", StartDate: "2025-09-02", EndDate: "2025-09-07"},
		{Destination: "Tokyo", StartDate: "2025-09-01", EndDate: "2025-09-08"},
		{Destination: "Tokyo", StartDate: "2025-09-01", EndDate: "2025-09-07", ExternalAccountRef: "someone"},
		{Destination: "Tokyo", StartDate: "2025-09-01", EndDate: "2025-09-07", Preferences: map[string]any{"budget": "low"}},
	}

	baseHash, err := base.Fingerprint()
	require.NoError(t, err)

	for _, variant := range variants {
		hash, err := variant.Fingerprint()
		require.NoError(t, err)
		assert.NotEqual(t, baseHash, hash, "variant %+v must hash differently", variant)
	}
}

func TestFingerprintStableAcrossCalls(t *testing.T) {
	req := TravelRequest{
		Destination: "Lisbon",
		StartDate:   "2026-03-10",
		EndDate:     "2026-03-14",
		Preferences: map[string]any{"interests": []any{"food", "museums"}},
	}

	first, err := req.Fingerprint()
	require.NoError(t, err)
	second, err := req.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64, "sha256 hex digest")
}

func TestTravelRequestValidate(t *testing.T) {
	valid := TravelRequest{Destination: "Tokyo", StartDate: "2025-09-01", EndDate: "2025-09-07"}
	require.NoError(t, valid.Validate())

	missingDestination := TravelRequest{StartDate: "2025-09-01", EndDate: "2025-09-07"}
	assert.ErrorIs(t, missingDestination.Validate(), ErrEmptyDestination)

	missingDates := TravelRequest{Destination: "Tokyo"}
	assert.ErrorIs(t, missingDates.Validate(), ErrEmptyTravelDates)
}
