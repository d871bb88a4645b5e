package anthropic

import (
	"context"
	"encoding/json"
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

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *AnthropicGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewAnthropicGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), config.LLMConfig{
		APIKey:  "test-key",
		Model:   "claude-test",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	return g
}

func TestNewAnthropicGeneratorValidation(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewAnthropicGenerator(nil, config.LLMConfig{APIKey: "k", Model: "m"})
	assert.Error(t, err)

	_, err = NewAnthropicGenerator(log, config.LLMConfig{Model: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewAnthropicGenerator(log, config.LLMConfig{APIKey: "k"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestGenerateSuccess(t *testing.T) {
	t.Parallel()

	var body struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	var path, apiKey string

	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("X-Api-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",`+
			`"content":[{"type":"text","text":" Mitochondria make ATP. "}],`+
			`"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":1}}`)
	})

	text, err := g.Generate(context.Background(), generation.Request{
		SystemPrompt: "system prompt",
		UserPrompt:   "user prompt",
		MaxTokens:    100,
		Temperature:  0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mitochondria make ATP.", text)

	assert.Equal(t, "/v1/messages", path)
	assert.Equal(t, "test-key", apiKey)
	assert.Equal(t, "claude-test", body.Model)
	assert.Equal(t, 100, body.MaxTokens)
	require.Len(t, body.System, 1)
	assert.Equal(t, "system prompt", body.System[0].Text)
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "user", body.Messages[0].Role)
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
		{"overloaded", 529, generation.ErrRemoteTransient},
		{"bad request", http.StatusBadRequest, generation.ErrGenerationFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"type":"error","error":{"type":"some_error","message":"nope"}}`)
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
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",`+
			`"content":[],"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":1,"output_tokens":0}}`)
	})

	_, err := g.Generate(context.Background(), generation.Request{UserPrompt: "x", MaxTokens: 10})
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}
