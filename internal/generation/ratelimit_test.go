package generation_test

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/slide-explainer/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedGeneratorPassesThrough(t *testing.T) {
	t.Parallel()

	next := generation.GeneratorFunc(func(_ context.Context, req generation.Request) (string, error) {
		return req.UserPrompt, nil
	})

	g := generation.NewRateLimitedGenerator(next, 0, 0)
	for i := 0; i < 20; i++ {
		text, err := g.Generate(context.Background(), generation.Request{UserPrompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "hi", text)
	}
}

func TestRateLimitedGeneratorHonorsContext(t *testing.T) {
	t.Parallel()

	next := generation.GeneratorFunc(func(context.Context, generation.Request) (string, error) {
		return "ok", nil
	})

	// One token per minute: the first call consumes the burst, the second must wait.
	g := generation.NewRateLimitedGenerator(next, 1.0/60, 1)
	_, err := g.Generate(context.Background(), generation.Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, generation.Request{})
	assert.Error(t, err)
}
