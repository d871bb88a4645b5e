package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/slide-explainer/internal/platform/logger"
)

// Default request parameters, matching what the service has always used.
const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 100
	DefaultTemperature = 0.7
)

// ExplainerConfig holds the sampling parameters sent with every request.
type ExplainerConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// DefaultExplainerConfig returns the default request parameters.
func DefaultExplainerConfig() ExplainerConfig {
	return ExplainerConfig{
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// Explainer produces the topic of a document and the explanation of each of
// its slides. It holds no mutable state and is safe for concurrent use.
type Explainer struct {
	gen    Generator
	config ExplainerConfig
	logger *slog.Logger
}

// NewExplainer creates an Explainer sending requests through gen.
func NewExplainer(gen Generator, config ExplainerConfig, log *slog.Logger) (*Explainer, error) {
	if gen == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: model cannot be empty", ErrInvalidConfig)
	}
	if config.MaxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive", ErrInvalidConfig)
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Explainer{
		gen:    gen,
		config: config,
		logger: log.With(slog.String("component", "explainer")),
	}, nil
}

// ExplainTopic asks the model for the main topic of a document in a few
// words. Empty input returns "" without calling the model.
func (e *Explainer) ExplainTopic(ctx context.Context, fullText string) (string, error) {
	if strings.TrimSpace(fullText) == "" {
		return "", nil
	}

	system, user := topicPrompts(fullText)
	return e.generate(ctx, "topic", system, user)
}

// ExplainBlock asks the model to explain one slide within the context of
// the document topic. Empty slide text returns "" without calling the model.
func (e *Explainer) ExplainBlock(ctx context.Context, blockText, topic string) (string, error) {
	if strings.TrimSpace(blockText) == "" {
		return "", nil
	}

	system, user := blockPrompts(blockText, topic)
	return e.generate(ctx, "block", system, user)
}

func (e *Explainer) generate(ctx context.Context, kind, system, user string) (string, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	text, err := e.gen.Generate(ctx, Request{
		SystemPrompt: system,
		UserPrompt:   user,
		Model:        e.config.Model,
		MaxTokens:    e.config.MaxTokens,
		Temperature:  e.config.Temperature,
	})
	if err != nil {
		// Bad credentials degrade the output instead of failing the job.
		if errors.Is(err, ErrRemoteAuth) {
			log.Warn("generation service rejected credentials, returning empty explanation",
				slog.String("kind", kind),
				slog.String("error", err.Error()))
			return "", nil
		}
		return "", fmt.Errorf("failed to generate %s explanation: %w", kind, err)
	}

	return strings.TrimSpace(text), nil
}
