// Package sqlite provides SQLite implementations of the store interfaces,
// built on the pure Go modernc.org/sqlite driver. It is the default job
// registry for single-machine deployments and for local runs of the CLI.
//
// Timestamps are stored as INTEGER Unix nanoseconds and results as JSON text.
package sqlite
