package ai

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

// GeminiBackend calls the Gemini generateContent API.
type GeminiBackend struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiBackend creates a backend from config. Returns nil when no API key
// is configured; classification then runs in pure deterministic mode.
func NewGeminiBackend(ctx context.Context, cfg config.GeminiConfig) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiBackend{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout(),
	}, nil
}

// Generate sends the prompt and returns the raw response text. Every call
// carries an explicit deadline so a slow backend cannot stall the request.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text, nil
}
