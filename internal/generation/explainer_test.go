package generation_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/phrazzld/slide-explainer/internal/generation"
	"github.com/phrazzld/slide-explainer/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingGenerator captures every request and answers with respond.
type recordingGenerator struct {
	mu       sync.Mutex
	requests []generation.Request
	respond  func(req generation.Request) (string, error)
}

func (g *recordingGenerator) Generate(_ context.Context, req generation.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.respond(req)
}

func (g *recordingGenerator) calls() []generation.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]generation.Request(nil), g.requests...)
}

func newExplainer(t *testing.T, gen generation.Generator) *generation.Explainer {
	t.Helper()
	e, err := generation.NewExplainer(gen, generation.DefaultExplainerConfig(), nil)
	require.NoError(t, err)
	return e
}

func TestNewExplainerValidation(t *testing.T) {
	t.Parallel()

	gen := generation.GeneratorFunc(func(context.Context, generation.Request) (string, error) { return "", nil })

	tests := []struct {
		name   string
		gen    generation.Generator
		mutate func(*generation.ExplainerConfig)
	}{
		{"nil generator", nil, func(*generation.ExplainerConfig) {}},
		{"empty model", gen, func(c *generation.ExplainerConfig) { c.Model = "" }},
		{"zero tokens", gen, func(c *generation.ExplainerConfig) { c.MaxTokens = 0 }},
		{"temperature too high", gen, func(c *generation.ExplainerConfig) { c.Temperature = 2.5 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := generation.DefaultExplainerConfig()
			tc.mutate(&cfg)
			_, err := generation.NewExplainer(tc.gen, cfg, nil)
			assert.ErrorIs(t, err, generation.ErrInvalidConfig)
		})
	}
}

func TestExplainTopic(t *testing.T) {
	t.Parallel()

	gen := &recordingGenerator{respond: func(generation.Request) (string, error) {
		return "  Photosynthesis Basics \n", nil
	}}
	e := newExplainer(t, gen)

	topic, err := e.ExplainTopic(context.Background(), "Photosynthesis Light reactions")
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis Basics", topic)

	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SystemPrompt, "main topic of a presentation")
	assert.Contains(t, calls[0].UserPrompt, "Photosynthesis Light reactions")
	assert.Contains(t, calls[0].UserPrompt, "up to 3 words")
	assert.Equal(t, generation.DefaultModel, calls[0].Model)
	assert.Equal(t, generation.DefaultMaxTokens, calls[0].MaxTokens)
	assert.InDelta(t, generation.DefaultTemperature, calls[0].Temperature, 1e-9)
}

func TestExplainBlockIncludesTopic(t *testing.T) {
	t.Parallel()

	gen := &recordingGenerator{respond: func(generation.Request) (string, error) {
		return "Chlorophyll absorbs light.", nil
	}}
	e := newExplainer(t, gen)

	text, err := e.ExplainBlock(context.Background(), "Light reactions\n", "Photosynthesis")
	require.NoError(t, err)
	assert.Equal(t, "Chlorophyll absorbs light.", text)

	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SystemPrompt, "expanded explanations")
	assert.Contains(t, calls[0].UserPrompt, "Light reactions")
	assert.Contains(t, calls[0].UserPrompt, "main topic:Photosynthesis")
	assert.Contains(t, calls[0].UserPrompt, "up to 3 sentences")
}

func TestEmptyInputSkipsModel(t *testing.T) {
	t.Parallel()

	gen := &recordingGenerator{respond: func(generation.Request) (string, error) {
		return "should not be used", nil
	}}
	e := newExplainer(t, gen)

	topic, err := e.ExplainTopic(context.Background(), "  \n\t")
	require.NoError(t, err)
	assert.Empty(t, topic)

	text, err := e.ExplainBlock(context.Background(), "", "Topic")
	require.NoError(t, err)
	assert.Empty(t, text)

	assert.Empty(t, gen.calls())
}

func TestAuthFailureDegradesToEmpty(t *testing.T) {
	t.Parallel()

	gen := &recordingGenerator{respond: func(generation.Request) (string, error) {
		return "", generation.ErrRemoteAuth
	}}
	e := newExplainer(t, gen)

	log, buf := logger.NewTestLogger()
	ctx := logger.WithLogger(context.Background(), log)

	topic, err := e.ExplainTopic(ctx, "some text")
	require.NoError(t, err)
	assert.Empty(t, topic)
	assert.True(t, buf.HasMessage(slog.LevelWarn, "generation service rejected credentials, returning empty explanation"))
}

func TestOtherFailuresPropagate(t *testing.T) {
	t.Parallel()

	gen := &recordingGenerator{respond: func(generation.Request) (string, error) {
		return "", generation.ErrRateLimited
	}}
	e := newExplainer(t, gen)

	_, err := e.ExplainBlock(context.Background(), "slide", "topic")
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrRateLimited)
	assert.ErrorIs(t, err, generation.ErrRemoteTransient)
	assert.Contains(t, err.Error(), "failed to generate block explanation")
}

func TestErrorForStatus(t *testing.T) {
	t.Parallel()

	tests := map[int]error{
		401: generation.ErrRemoteAuth,
		403: generation.ErrRemoteAuth,
		429: generation.ErrRateLimited,
		408: generation.ErrRemoteTransient,
		500: generation.ErrRemoteTransient,
		503: generation.ErrRemoteTransient,
		400: generation.ErrGenerationFailed,
		404: generation.ErrGenerationFailed,
	}
	for code, want := range tests {
		got := generation.ErrorForStatus(code)
		assert.True(t, errors.Is(got, want), "status %d", code)
	}

	assert.True(t, generation.IsRetryable(generation.ErrorForStatus(429)))
	assert.False(t, generation.IsRetryable(generation.ErrorForStatus(401)))
}
