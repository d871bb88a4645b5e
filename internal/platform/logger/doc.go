// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, optionally fanned out to a log file, and carries
// request- or job-scoped loggers through context.Context.
package logger
