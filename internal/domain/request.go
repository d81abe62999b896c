package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Common validation errors for TravelRequest
var (
	ErrEmptyDestination = errors.New("destination cannot be empty")
	ErrEmptyTravelDates = errors.New("travel dates cannot be empty")
)

// TravelRequest holds the semantically meaningful fields of a
// recommendation request. These fields, and only these fields, feed the
// request fingerprint used for deduplication.
type TravelRequest struct {
	Destination        string         `json:"destination"`
	StartDate          string         `json:"start_date"`
	EndDate            string         `json:"end_date"`
	ExternalAccountRef string         `json:"external_account_ref,omitempty"`
	Preferences        map[string]any `json:"preferences,omitempty"`
}

// Validate checks that the request carries the required fields.
func (r *TravelRequest) Validate() error {
	if r.Destination == "" {
		return ErrEmptyDestination
	}
	if r.StartDate == "" || r.EndDate == "" {
		return ErrEmptyTravelDates
	}
	return nil
}

// Fingerprint returns a deterministic content hash of the request.
//
// The hash is computed over a canonical JSON encoding: struct fields are
// emitted in declaration order and encoding/json serializes map keys in
// sorted order, so two requests that differ only in object-key ordering
// produce the same fingerprint. Absent optional fields are normalized
// (nil preferences hash identically to an empty preferences object).
func (r *TravelRequest) Fingerprint() (string, error) {
	prefs := r.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}

	canonical := struct {
		Destination        string         `json:"destination"`
		StartDate          string         `json:"start_date"`
		EndDate            string         `json:"end_date"`
		ExternalAccountRef string         `json:"external_account_ref"`
		Preferences        map[string]any `json:"preferences"`
	}{
		Destination:        r.Destination,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		ExternalAccountRef: r.ExternalAccountRef,
		Preferences:        prefs,
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize request: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
