package generation

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedGenerator waits for a limiter token before every call.
type RateLimitedGenerator struct {
	next    Generator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator allows at most requestsPerSecond calls per second
// with the given burst. A non-positive rate means unlimited.
func NewRateLimitedGenerator(next Generator, requestsPerSecond float64, burst int) *RateLimitedGenerator {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	return &RateLimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Generate implements Generator.
func (g *RateLimitedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}
	return g.next.Generate(ctx, req)
}

var _ Generator = (*RateLimitedGenerator)(nil)
