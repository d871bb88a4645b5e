package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/platform/filestore"
	"github.com/phrazzld/slide-explainer/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is().
var (
	// ErrJobNotFound indicates that the job does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidSubmission indicates that the submitted name or email is not acceptable.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidSubmission = errors.New("invalid submission")

	// ErrUnsupportedDocument indicates that the document is not a presentation
	// the explainer can read.
	// API layer should map this to HTTP 415 Unsupported Media Type.
	ErrUnsupportedDocument = errors.New("unsupported document type")

	// ErrDocumentTooLarge indicates that the document exceeds the upload limit.
	// API layer should map this to HTTP 413 Request Entity Too Large.
	ErrDocumentTooLarge = errors.New("document too large")
)

// JobServiceError wraps errors from the job service with context.
type JobServiceError struct {
	// Operation is the operation that failed (e.g., "submit", "status")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for JobServiceError.
func (e *JobServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("job service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *JobServiceError) Unwrap() error {
	return e.Err
}

// NewJobServiceError creates a new JobServiceError.
// Known conditions are returned as the matching service sentinel instead.
func NewJobServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrJobNotFound), errors.Is(err, store.ErrJobNotFound):
		return ErrJobNotFound
	case errors.Is(err, filestore.ErrTooLarge):
		return fmt.Errorf("%w: %w", ErrDocumentTooLarge, err)
	case errors.Is(err, domain.ErrEmptySourceName),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmptyEmail):
		return fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}

	return &JobServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
