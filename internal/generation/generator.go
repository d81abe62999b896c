package generation

import (
	"context"

	"github.com/tripkit/tripkit-api/internal/domain"
)

// Generator defines the interface for the recommendation generation engine.
// Implementations may take minutes per call; callers enforce their own
// deadlines through the context.
type Generator interface {
	// GenerateRecommendations produces raw textual output for the given
	// request. The text may be fenced JSON, JSON embedded in prose, or
	// free text; the caller normalizes it downstream.
	GenerateRecommendations(ctx context.Context, req domain.TravelRequest) (string, error)
}
