package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/phrazzld/slide-explainer/internal/generation"
	"github.com/phrazzld/slide-explainer/internal/platform/anthropic"
	"github.com/phrazzld/slide-explainer/internal/platform/gemini"
	"github.com/phrazzld/slide-explainer/internal/platform/openai"
)

// newProviderGenerator creates the client for the configured LLM provider.
func newProviderGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.Generator, error) {
	log := logger.With("component", "llm_generator", "provider", cfg.Provider)

	var (
		gen generation.Generator
		err error
	)
	switch cfg.Provider {
	case "openai":
		gen, err = openai.NewOpenAIGenerator(log, cfg)
	case "gemini":
		gen, err = gemini.NewGeminiGenerator(ctx, log, cfg)
	case "anthropic":
		gen, err = anthropic.NewAnthropicGenerator(log, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// newExplainer builds the explainer used for both topic and slide requests.
// Every attempt, retries included, waits for the rate limiter.
func newExplainer(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*generation.Explainer, error) {
	gen, err := newProviderGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}

	gen = generation.NewRateLimitedGenerator(gen, cfg.RequestsPerSecond, cfg.Burst)
	gen = generation.NewRetryingGenerator(gen, generation.RetryConfig{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryDelay,
	}, logger)

	return generation.NewExplainer(gen, generation.ExplainerConfig{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}, logger)
}
