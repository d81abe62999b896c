package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/tripkit/tripkit-api/internal/config"
	"github.com/tripkit/tripkit-api/internal/domain"
	"github.com/tripkit/tripkit-api/internal/generation"
)

// Generator implements generation.Generator using Google's Gemini API.
type Generator struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	client         *genai.Client
	model          string
}

// NewGenerator creates a Gemini-backed generator.
//
// Parameters:
//   - ctx: Context for client initialization
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing the API key, model name, and retry
//     settings
//
// Returns a ready Generator or an error if the configuration is invalid or
// the client cannot be created.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	promptTemplate, err := template.New("coordinator").Parse(coordinatorPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         logger,
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// GenerateRecommendations renders the coordinator prompt for the request
// and calls the Gemini API with retry, returning the raw response text.
func (g *Generator) GenerateRecommendations(ctx context.Context, req domain.TravelRequest) (string, error) {
	prompt, err := g.createPrompt(req)
	if err != nil {
		return "", err
	}

	g.logger.InfoContext(ctx, "invoking generation engine",
		"destination", req.Destination,
		"model", g.model,
		"prompt_length", len(prompt))

	return g.callWithRetry(ctx, prompt)
}

// createPrompt renders the coordinator prompt for the given request.
func (g *Generator) createPrompt(req domain.TravelRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	}

	prefs := "{}"
	if len(req.Preferences) > 0 {
		data, err := json.Marshal(req.Preferences)
		if err != nil {
			return "", fmt.Errorf("failed to encode preferences for prompt: %w", err)
		}
		prefs = string(data)
	}

	var buf bytes.Buffer
	err := g.promptTemplate.Execute(&buf, promptData{
		Destination:        req.Destination,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		ExternalAccountRef: req.ExternalAccountRef,
		Preferences:        prefs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}

// callWithRetry calls the Gemini API with exponential backoff and jitter.
// Transient API errors are retried up to MaxRetries times; safety blocks
// and structurally empty responses are permanent and returned immediately.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		g.logger.DebugContext(ctx, "calling Gemini API",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		text, transient, err := g.callOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !transient {
			return "", err
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, ctx.Err())
		}
		if attempt == maxRetries {
			break
		}

		delay := time.Duration(float64(baseDelaySeconds)*math.Pow(2, float64(attempt))) * time.Second
		jitter := time.Duration(rng.Int63n(int64(time.Second)))
		g.logger.WarnContext(ctx, "Gemini API call failed, retrying",
			"attempt", attempt+1,
			"delay", delay+jitter,
			"error", err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, ctx.Err())
		case <-time.After(delay + jitter):
		}
	}

	return "", fmt.Errorf("%w: retries exhausted: %v", generation.ErrGenerationFailed, lastErr)
}

// callOnce performs a single API call. The transient flag reports whether
// the error is worth retrying.
func (g *Generator) callOnce(ctx context.Context, prompt string) (text string, transient bool, err error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false, fmt.Errorf("%w: no candidates in response", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", false, generation.ErrContentBlocked
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", false, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	out := sb.String()
	if strings.TrimSpace(out) == "" {
		return "", false, fmt.Errorf("%w: response contained no text", generation.ErrInvalidResponse)
	}

	return out, false, nil
}
