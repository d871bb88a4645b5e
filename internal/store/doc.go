// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// The job registry is implemented by platform/postgres, platform/sqlite
// and the in-memory mocks.JobStore; storetest holds the behavioral
// contract all of them are tested against.
package store
