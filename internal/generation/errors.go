package generation

import "errors"

// Common errors returned by generation engine implementations.
var (
	// ErrGenerationFailed is returned when the engine fails for any
	// general reason.
	ErrGenerationFailed = errors.New("failed to generate recommendations")

	// ErrInvalidResponse is returned when the engine reply is empty or
	// structurally unusable (no candidates, no content).
	ErrInvalidResponse = errors.New("invalid response from generation engine")

	// ErrContentBlocked is returned when the engine refuses the request
	// on safety grounds. Not retryable.
	ErrContentBlocked = errors.New("content blocked by engine safety filters")

	// ErrInvalidConfig is returned when the engine configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
