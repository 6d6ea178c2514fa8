package wordpress

import (
	"context"
	"log/slog"
)

// Logger receives diagnostic messages from the client, e.g. outgoing URLs
// under the "http" category.
type Logger interface {
	Log(category, message string)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Log(string, string) {}

// SlogLogger forwards messages to a *slog.Logger at debug level.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Log(category, message string) {
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, message, slog.String("category", category))
}
