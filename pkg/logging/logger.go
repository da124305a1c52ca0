package logging

import (
	"context"
	"log/slog"
	"sort"
	"strings"
)

// Level represents log severity
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger defines the interface for logging
// Implementations include console, file, and null loggers
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields Fields)

	// Info logs an info message
	Info(ctx context.Context, msg string, fields Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a logger with additional fields
	WithFields(fields Fields) Logger

	// Close flushes and closes the logger
	Close() error
}

// slogLogger adapts a *slog.Logger to the Logger interface
type slogLogger struct {
	logger *slog.Logger
	close  func() error
}

func (l *slogLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.logger.DebugContext(ctx, msg, fields.args()...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.logger.InfoContext(ctx, msg, fields.args()...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.logger.WarnContext(ctx, msg, fields.args()...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	args := fields.args()
	if err != nil {
		args = append([]any{slog.String("error", err.Error())}, args...)
	}
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) WithFields(fields Fields) Logger {
	return &slogLogger{logger: l.logger.With(fields.args()...), close: l.close}
}

func (l *slogLogger) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}

// args flattens fields into slog attributes sorted by key
func (f Fields) args() []any {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, slog.Any(k, f[k]))
	}
	return args
}

// slogLevel converts a Level to its slog counterpart
func (l Level) slogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// levelString returns the string representation of a log level
func levelString(level Level) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// LevelString returns level as string (exported version)
func LevelString(level Level) string {
	return levelString(level)
}
