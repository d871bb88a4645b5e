package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/slide-explainer/internal/api/shared"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/service"
	"github.com/phrazzld/slide-explainer/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var maxBytesErr *http.MaxBytesError

	switch {
	// Not found errors
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Upload errors
	case errors.Is(err, service.ErrDocumentTooLarge),
		errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, service.ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType

	// Bad request errors
	case errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, store.ErrJobNotFound):
		return "Job not found"

	case errors.Is(err, service.ErrDocumentTooLarge),
		errors.As(err, &maxBytesErr):
		return "Document is too large"

	case errors.Is(err, service.ErrUnsupportedDocument):
		return "Only .pptx presentations are supported"

	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email format"

	case errors.Is(err, domain.ErrEmptySourceName):
		return "File name is required"

	case errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status code and safe message matching err.
// A non-empty message overrides the default message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
