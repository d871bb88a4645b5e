// Package mocks provides centralized mock implementations for testing.
//
// This package contains mock implementations of interfaces used throughout the application,
// facilitating consistent and DRY testing across the codebase. Instead of defining
// inline mocks in individual test files, these standardized mock implementations
// can be reused.
//
// Usage:
//
//	jobs := mocks.NewMockJobStore()
//	jobs.FindPendingFn = func(ctx context.Context) ([]*domain.Job, error) {
//	    return nil, errors.New("database unavailable")
//	}
//
// MockJobStore is a working in-memory registry; the Fn fields override
// single methods when a test needs to inject a failure.
package mocks
