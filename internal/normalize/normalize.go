// Package normalize converts raw generation-engine output into the strict
// recommendation schema. Engine output is free text that may carry a fenced
// JSON block, a bare JSON object embedded in prose, or no structured data at
// all; normalization is total and never returns an error. Failures are
// expressed as a degraded payload so the downstream contract stays closed.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// RequiredKeys are the top-level keys every normalized recommendation
// document must carry, each holding a sequence.
var RequiredKeys = []string{"itinerary", "restaurants", "attractions", "accommodations", "tips"}

// summaryLimit caps how much raw output is echoed back in a degraded
// payload's summary field.
const summaryLimit = 500

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?[ \t]*\n(.*?)\n[ \t]*```")
	jsonObjectRe  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ErrorPayload describes a normalization failure in a client-safe form.
type ErrorPayload struct {
	// Error is a human-readable description of the parse failure.
	Error string `json:"error"`
	// Summary echoes the beginning of the raw output so callers can see
	// what the engine actually produced.
	Summary string `json:"summary"`
}

// Result is the outcome of normalizing engine output: either a structured
// recommendation document or a degraded error payload. Exactly one of the
// two is set; callers branch on IsDegraded rather than probing for keys.
type Result struct {
	structured map[string]any
	degraded   *ErrorPayload
}

// IsDegraded reports whether normalization fell back to the error payload.
func (r Result) IsDegraded() bool {
	return r.degraded != nil
}

// Degraded returns the error payload, or nil for a structured result.
func (r Result) Degraded() *ErrorPayload {
	return r.degraded
}

// Document returns the normalized recommendation document. It always
// contains every key in RequiredKeys; for a degraded result the required
// keys hold empty sequences and the document additionally carries the
// error and summary fields.
func (r Result) Document() map[string]any {
	if r.degraded != nil {
		doc := map[string]any{
			"error":   r.degraded.Error,
			"summary": r.degraded.Summary,
		}
		for _, key := range RequiredKeys {
			doc[key] = []any{}
		}
		return doc
	}
	return r.structured
}

// Text normalizes raw textual engine output.
//
// Candidate extraction is ordered, first match wins: the first fenced code
// block (optionally tagged json), then the outermost brace-delimited span.
// A successful parse is patched so every required key is present; missing
// or null keys become empty sequences, since a partial document is worth
// more than a rejection. Anything else degrades.
func Text(raw string) Result {
	candidate, ok := extractCandidate(raw)
	if !ok {
		return degrade("no structured data found in engine output", raw)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return degrade(fmt.Sprintf("failed to parse engine output as JSON: %v", err), raw)
	}

	for _, key := range RequiredKeys {
		if v, present := doc[key]; !present || v == nil {
			doc[key] = []any{}
		}
	}

	return Result{structured: doc}
}

// extractCandidate pulls the most promising JSON span out of the raw text.
func extractCandidate(raw string) (string, bool) {
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := jsonObjectRe.FindString(raw); m != "" {
		return strings.TrimSpace(m), true
	}
	return "", false
}

func degrade(cause, raw string) Result {
	return Result{degraded: &ErrorPayload{
		Error:   cause,
		Summary: truncate(raw, summaryLimit),
	}}
}

// truncate bounds s to limit characters, appending an ellipsis when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
