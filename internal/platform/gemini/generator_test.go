package gemini

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripkit/tripkit-api/internal/config"
	"github.com/tripkit/tripkit-api/internal/domain"
	"github.com/tripkit/tripkit-api/internal/generation"
)

func newPromptOnlyGenerator(t *testing.T) *Generator {
	t.Helper()

	tmpl, err := template.New("coordinator").Parse(coordinatorPrompt)
	require.NoError(t, err)

	return &Generator{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		promptTemplate: tmpl,
	}
}

func TestCreatePromptIncludesRequestFields(t *testing.T) {
	g := newPromptOnlyGenerator(t)

	prompt, err := g.createPrompt(domain.TravelRequest{
		Destination: "Tokyo",
		StartDate:   "2025-09-01",
		EndDate:     "2025-09-07",
		Preferences: map[string]any{"budget": "medium"},
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Destination: Tokyo")
	assert.Contains(t, prompt, "2025-09-01 to 2025-09-07")
	assert.Contains(t, prompt, `"budget":"medium"`)
	assert.NotContains(t, prompt, "social account reference")
}

func TestCreatePromptWithAccountRef(t *testing.T) {
	g := newPromptOnlyGenerator(t)

	prompt, err := g.createPrompt(domain.TravelRequest{
		Destination:        "Tokyo",
		StartDate:          "2025-09-01",
		EndDate:            "2025-09-07",
		ExternalAccountRef: "traveler42",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "social account reference: traveler42")
	assert.Contains(t, prompt, "Traveler preferences: {}")
}

func TestCreatePromptRejectsInvalidRequest(t *testing.T) {
	g := newPromptOnlyGenerator(t)

	_, err := g.createPrompt(domain.TravelRequest{Destination: "Tokyo"})
	assert.Error(t, err)
}

func TestNewGeneratorValidatesConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	_, err := NewGenerator(ctx, nil, config.LLMConfig{GeminiAPIKey: "key", ModelName: "model"})
	assert.Error(t, err)

	_, err = NewGenerator(ctx, logger, config.LLMConfig{ModelName: "model"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewGenerator(ctx, logger, config.LLMConfig{GeminiAPIKey: "key"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
