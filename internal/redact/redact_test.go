package redact_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/slide-explainer/internal/redact"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no sensitive data",
			input:    "poll cycle failed",
			expected: "poll cycle failed",
		},
		{
			name:     "database connection string",
			input:    "open postgres://app:pw@db/explainer failed",
			expected: "open [REDACTED_CREDENTIAL]db/explainer failed",
		},
		{
			name:     "openai key",
			input:    "calling model with key sk-abcdefghijklmnop1234",
			expected: "calling model with key [REDACTED_KEY]",
		},
		{
			name:     "anthropic key",
			input:    "anthropic error: sk-ant-api03-abcdefgh",
			expected: "anthropic error: [REDACTED_KEY]",
		},
		{
			name:     "google key",
			input:    "gemini: AIzaSyA1234567890abcdefghijk",
			expected: "gemini: [REDACTED_KEY]",
		},
		{
			name:     "api key parameter",
			input:    "Using api_key=abcdef1234567890 for requests",
			expected: "Using [REDACTED_KEY] for requests",
		},
		{
			name:     "password parameter",
			input:    "login failed with password=secret123 in dsn",
			expected: "login failed with [REDACTED_CREDENTIAL] in dsn",
		},
		{
			name:     "email",
			input:    "owner ada@example.com missing",
			expected: "owner [REDACTED_EMAIL] missing",
		},
		{
			name:     "file path",
			input:    "open /var/lib/explainer/uploads/x.pptx: permission denied",
			expected: "open [REDACTED_PATH]: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, redact.String(tt.input))
		})
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", redact.Error(nil))

	err := fmt.Errorf("failed to generate topic: %w", errors.New("anthropic error: sk-ant-api03-abcdefgh"))
	assert.Equal(t, "failed to generate topic: anthropic error: [REDACTED_KEY]", redact.Error(err))
}
