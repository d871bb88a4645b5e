package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/phrazzld/slide-explainer/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewOpenAIGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), config.LLMConfig{
		APIKey:  "test-key",
		Model:   "gpt-3.5-turbo",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	return g
}

func chatCompletion(content string) string {
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo",`+
		`"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],`+
		`"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`, content)
}

func TestNewOpenAIGeneratorValidation(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewOpenAIGenerator(nil, config.LLMConfig{APIKey: "k", Model: "m"})
	assert.Error(t, err)

	_, err = NewOpenAIGenerator(log, config.LLMConfig{Model: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewOpenAIGenerator(log, config.LLMConfig{APIKey: "k"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestGenerateSuccess(t *testing.T) {
	t.Parallel()

	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
	var path, auth string

	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletion("  Photosynthesis  "))
	})

	text, err := g.Generate(context.Background(), generation.Request{
		SystemPrompt: "system prompt",
		UserPrompt:   "user prompt",
		Model:        "gpt-3.5-turbo",
		MaxTokens:    100,
		Temperature:  0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis", text)

	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "gpt-3.5-turbo", body.Model)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "user", body.Messages[1].Role)
}

func TestGenerateErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, generation.ErrRemoteAuth},
		{"rate limited", http.StatusTooManyRequests, generation.ErrRateLimited},
		{"unavailable", http.StatusServiceUnavailable, generation.ErrRemoteTransient},
		{"bad request", http.StatusBadRequest, generation.ErrGenerationFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"error"}}`)
			})

			_, err := g.Generate(context.Background(), generation.Request{UserPrompt: "x", MaxTokens: 10})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGenerateEmptyContent(t *testing.T) {
	t.Parallel()

	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletion("   "))
	})

	_, err := g.Generate(context.Background(), generation.Request{UserPrompt: "x", MaxTokens: 10})
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}
