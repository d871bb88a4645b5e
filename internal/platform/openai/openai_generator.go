// Package openai provides an implementation of the generation.Generator
// interface for OpenAI compatible chat completion endpoints, built on
// langchaingo.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/phrazzld/slide-explainer/internal/generation"
	"github.com/tmc/langchaingo/llms"
	openaillm "github.com/tmc/langchaingo/llms/openai"
)

// OpenAIGenerator implements generation.Generator with a chat completion model.
type OpenAIGenerator struct {
	logger *slog.Logger
	llm    *openaillm.LLM
	model  string
}

// NewOpenAIGenerator creates a generator for the configured model.
// cfg.BaseURL, when set, points the client at any OpenAI compatible server.
func NewOpenAIGenerator(logger *slog.Logger, cfg config.LLMConfig) (*OpenAIGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	opts := []openaillm.Option{
		openaillm.WithToken(cfg.APIKey),
		openaillm.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openaillm.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openaillm.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create OpenAI client: %v", generation.ErrInvalidConfig, err)
	}

	return &OpenAIGenerator{
		logger: logger.With(slog.String("component", "openai_generator")),
		llm:    llm,
		model:  cfg.Model,
	}, nil
}

// Generate implements generation.Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, req generation.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	messages := make([]llms.MessageContent, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.UserPrompt))

	g.logger.DebugContext(ctx, "calling chat completion API",
		slog.String("model", model),
		slog.Int("prompt_length", len(req.UserPrompt)))

	resp, err := g.llm.GenerateContent(ctx, messages,
		llms.WithModel(model),
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithTemperature(req.Temperature),
	)
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", generation.ErrInvalidResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty message content", generation.ErrInvalidResponse)
	}
	return text, nil
}

// mapError classifies client errors using langchaingo's error codes.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, openaillm.ErrEmptyResponse) {
		return fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	mapped := openaillm.MapError(err)
	switch {
	case llms.IsAuthenticationError(mapped):
		return fmt.Errorf("%w: %v", generation.ErrRemoteAuth, err)
	case llms.IsRateLimitError(mapped), llms.IsQuotaExceededError(mapped):
		return fmt.Errorf("%w: %v", generation.ErrRateLimited, err)
	case llms.IsProviderUnavailableError(mapped), llms.IsTimeoutError(mapped):
		return fmt.Errorf("%w: %v", generation.ErrRemoteTransient, err)
	case llms.IsContentFilterError(mapped):
		return fmt.Errorf("%w: %v", generation.ErrContentBlocked, err)
	default:
		return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
}

var _ generation.Generator = (*OpenAIGenerator)(nil)
