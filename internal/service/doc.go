// Package service contains the application-specific use cases. It
// orchestrates domain objects, the job registry (defined in internal/store)
// and document storage to fulfill what the API and CLI expose.
//
// Services receive their dependencies through constructor injection and
// never depend on a specific infrastructure implementation. Expected
// conditions are returned as the sentinel errors in errors.go; anything
// else is wrapped in a JobServiceError. The API layer maps both to HTTP
// status codes.
package service
