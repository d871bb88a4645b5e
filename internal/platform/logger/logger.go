package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/slide-explainer/internal/config"
	slogmulti "github.com/samber/slog-multi"
)

// Option adjusts how Setup builds the logger.
type Option func(*setupOptions)

type setupOptions struct {
	writer io.Writer
}

// WithWriter sends records to w instead of stdout. Commands whose stdout
// carries data use it to log to stderr.
func WithWriter(w io.Writer) Option {
	return func(o *setupOptions) {
		o.writer = w
	}
}

// Setup initializes and configures the application's logging system based on
// the provided configuration. It creates a structured JSON logger on stdout
// with the appropriate log level and sets it as the default logger for the
// application. When cfg.LogFile is set, every record is also appended to that
// file; the file stays open for the life of the process.
func Setup(cfg config.ServerConfig, opts ...Option) (*slog.Logger, error) {
	so := setupOptions{writer: os.Stdout}
	for _, opt := range opts {
		opt(&so)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.LogLevel),
	}

	handler := slog.Handler(slog.NewJSONHandler(so.writer, handlerOpts))

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.LogFile, err)
		}
		handler = slogmulti.Fanout(handler, slog.NewJSONHandler(f, handlerOpts))
	}

	logger := slog.New(handler)

	// Set this logger as the default for the application
	// This allows using the slog package functions directly (slog.Info, slog.Error, etc.)
	slog.SetDefault(logger)

	return logger, nil
}

// ParseLevel converts a configured level name into a slog.Level. Unknown
// names fall back to info with a warning on stderr.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", name,
			"default_level", "info")
		return slog.LevelInfo
	}
}
