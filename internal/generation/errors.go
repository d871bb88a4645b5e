package generation

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the generation package and its providers
var (
	// ErrGenerationFailed is returned when a generation request fails for a
	// reason that retrying will not fix
	ErrGenerationFailed = errors.New("generation request failed")

	// ErrInvalidResponse is returned when the provider answers without usable text
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the provider refuses the prompt due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrRemoteAuth is returned when the provider rejects the configured credentials
	ErrRemoteAuth = errors.New("generation service rejected credentials")

	// ErrRemoteTransient is returned for temporary errors that might resolve on retry
	ErrRemoteTransient = errors.New("transient generation service error")

	// ErrRateLimited is returned when the provider throttles requests. It is a
	// transient error, so errors.Is(err, ErrRemoteTransient) also holds.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrRemoteTransient)

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRemoteTransient)
}

// ErrorForStatus maps an HTTP status code returned by a provider to the
// matching sentinel error.
func ErrorForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrRemoteAuth
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusRequestTimeout || code >= http.StatusInternalServerError:
		return ErrRemoteTransient
	default:
		return ErrGenerationFailed
	}
}
