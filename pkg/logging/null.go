package logging

import "log/slog"

// NewNullLogger returns a Logger that drops every record. Components fall
// back to it when no logger is configured.
func NewNullLogger() Logger {
	return &slogLogger{logger: slog.New(slog.DiscardHandler)}
}
