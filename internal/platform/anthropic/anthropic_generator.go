// Package anthropic provides an implementation of the generation.Generator
// interface backed by Anthropic's Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/phrazzld/slide-explainer/internal/generation"
)

// AnthropicGenerator implements generation.Generator using Claude models.
type AnthropicGenerator struct {
	logger *slog.Logger
	client anthropicsdk.Client
	model  string
}

// NewAnthropicGenerator creates a generator for the configured model. SDK
// level retries are disabled; retrying is left to generation.RetryingGenerator.
func NewAnthropicGenerator(logger *slog.Logger, cfg config.LLMConfig) (*AnthropicGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicGenerator{
		logger: logger.With(slog.String("component", "anthropic_generator")),
		client: anthropicsdk.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Generate implements generation.Generator.
func (g *AnthropicGenerator) Generate(ctx context.Context, req generation.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropicsdk.Float(req.Temperature),
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: req.SystemPrompt}}
	}

	g.logger.DebugContext(ctx, "calling Anthropic API",
		slog.String("model", model),
		slog.Int("prompt_length", len(req.UserPrompt)))

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}

	if msg.StopReason == anthropicsdk.StopReasonRefusal {
		return "", fmt.Errorf("%w: model refused the prompt", generation.ErrContentBlocked)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text content in response", generation.ErrInvalidResponse)
	}
	return text, nil
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: anthropic status %d", generation.ErrorForStatus(apiErr.StatusCode), apiErr.StatusCode)
	}

	return fmt.Errorf("%w: %v", generation.ErrRemoteTransient, err)
}

var _ generation.Generator = (*AnthropicGenerator)(nil)
