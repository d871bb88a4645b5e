package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig controls how transient failures are retried.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one. Zero disables retries.
	MaxRetries int

	// BaseDelay is the first backoff delay; each later delay doubles it.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff delay. Zero means 30 seconds.
	MaxDelay time.Duration
}

// RetryingGenerator retries calls failing with a transient or rate limit
// error using exponential backoff with jitter. Other errors are returned
// immediately.
type RetryingGenerator struct {
	next   Generator
	config RetryConfig
	logger *slog.Logger
}

// NewRetryingGenerator wraps next with retries.
func NewRetryingGenerator(next Generator, config RetryConfig, logger *slog.Logger) *RetryingGenerator {
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RetryingGenerator{
		next:   next,
		config: config,
		logger: logger.With(slog.String("component", "retrying_generator")),
	}
}

// Generate implements Generator.
func (g *RetryingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	backoff := retry.NewExponential(g.config.BaseDelay)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithCappedDuration(g.config.MaxDelay, backoff)
	backoff = retry.WithMaxRetries(uint64(g.config.MaxRetries), backoff)

	attempt := 0
	return retry.DoValue(ctx, backoff, func(ctx context.Context) (string, error) {
		attempt++
		text, err := g.next.Generate(ctx, req)
		if err == nil {
			return text, nil
		}
		if !IsRetryable(err) {
			return "", err
		}

		g.logger.Warn("transient generation error",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", g.config.MaxRetries),
			slog.String("error", err.Error()))
		return "", retry.RetryableError(err)
	})
}

var _ Generator = (*RetryingGenerator)(nil)
