package store

import "errors"

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store.
	ErrNotFound = errors.New("entity not found")

	// ErrUnavailable is returned when the durable store cannot be
	// reached. Callers decide per call site whether to fail open (dedup
	// lookups) or fail closed (state writes on the submission path).
	ErrUnavailable = errors.New("durable store unavailable")

	// ErrInvalidTransition is returned when a terminal write targets a
	// task that is already terminal. The original terminal state is
	// preserved; last-writer-wins would let a stale retry overwrite a
	// recorded SUCCESS.
	ErrInvalidTransition = errors.New("task is already in a terminal state")
)
