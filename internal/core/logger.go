package core

import (
	"io"
	"log/slog"
	"os"
)

// Logger provides a structured logging interface for the application.
type Logger interface {
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Debug(msg string, fields ...any)
}

// slogLogger wraps the standard library slog.Logger.
type slogLogger struct {
	logger *slog.Logger
}

// NewLogger creates a new logger with the specified log level writing JSON to stderr.
func NewLogger(level string) Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo creates a JSON logger writing to w.
func NewLoggerTo(w io.Writer, level string) Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return &slogLogger{logger: slog.New(handler)}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return &slogLogger{logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

func (l *slogLogger) Info(msg string, fields ...any) {
	l.logger.Info(msg, fields...)
}

func (l *slogLogger) Warn(msg string, fields ...any) {
	l.logger.Warn(msg, fields...)
}

func (l *slogLogger) Error(msg string, fields ...any) {
	l.logger.Error(msg, fields...)
}

func (l *slogLogger) Debug(msg string, fields ...any) {
	l.logger.Debug(msg, fields...)
}
