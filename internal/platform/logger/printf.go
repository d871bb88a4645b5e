package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// PrintfLogger adapts a slog.Logger to libraries that log through
// Printf/Fatalf, such as goose.
type PrintfLogger struct {
	logger *slog.Logger
}

// NewPrintfLogger returns a PrintfLogger writing to l, or to slog.Default()
// when l is nil.
func NewPrintfLogger(l *slog.Logger) *PrintfLogger {
	if l == nil {
		l = slog.Default()
	}
	return &PrintfLogger{logger: l}
}

// Printf forwards the message at info level.
func (p *PrintfLogger) Printf(format string, v ...any) {
	p.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf forwards the message at error level. Unlike log.Fatalf it does not
// exit; the caller gets the error back and decides.
func (p *PrintfLogger) Fatalf(format string, v ...any) {
	p.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
