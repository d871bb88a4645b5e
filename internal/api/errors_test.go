package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/platform/filestore"
	"github.com/phrazzld/slide-explainer/internal/service"
	"github.com/phrazzld/slide-explainer/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"service not found", service.ErrJobNotFound, http.StatusNotFound},
		{"store not found", store.ErrJobNotFound, http.StatusNotFound},
		{"duplicate", store.ErrJobExists, http.StatusConflict},
		{"too large", fmt.Errorf("%w: limit", service.ErrDocumentTooLarge), http.StatusRequestEntityTooLarge},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"unsupported", service.ErrUnsupportedDocument, http.StatusUnsupportedMediaType},
		{"invalid submission", service.ErrInvalidSubmission, http.StatusBadRequest},
		{"invalid email", domain.ErrInvalidEmail, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "Job not found", GetSafeErrorMessage(store.ErrJobNotFound))
	assert.Equal(t, "Only .pptx presentations are supported", GetSafeErrorMessage(service.ErrUnsupportedDocument))
	assert.Equal(t, "Invalid email format",
		GetSafeErrorMessage(service.NewJobServiceError("submit", "invalid job", domain.ErrInvalidEmail)))
	assert.Equal(t, "File name is required",
		GetSafeErrorMessage(service.NewJobServiceError("submit", "invalid job", domain.ErrEmptySourceName)))
	assert.Equal(t, "Document is too large",
		GetSafeErrorMessage(service.NewJobServiceError("submit", "failed to save document", filestore.ErrTooLarge)))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("dial tcp 10.0.0.5:5432: connection refused")))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := validator.New().Struct(&LatestJobRequest{Name: "deck.pptx", Email: "secret-not-an-email"})
	msg := SanitizeValidationError(err)
	assert.Equal(t, "Invalid Email: invalid email format", msg)
	assert.NotContains(t, msg, "secret")

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
