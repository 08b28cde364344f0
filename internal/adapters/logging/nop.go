// Package logging implements ports.Logger for the console, plus a no-op logger
// for quiet runs and tests.
package logging

import (
	"context"

	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// NopLogger discards all messages.
type NopLogger struct {
	level ports.Level
}

// NewNopLogger creates a new no-op logger.
func NewNopLogger() *NopLogger {
	return &NopLogger{level: ports.LevelInfo}
}

func (l *NopLogger) Debug(context.Context, string, ...ports.Field) {}
func (l *NopLogger) Info(context.Context, string, ...ports.Field)  {}
func (l *NopLogger) Warn(context.Context, string, ...ports.Field)  {}
func (l *NopLogger) Error(context.Context, string, ...ports.Field) {}

// With returns the receiver.
func (l *NopLogger) With(...ports.Field) ports.Logger {
	return l
}

// Level returns the log level.
func (l *NopLogger) Level() ports.Level {
	return l.level
}

// SetLevel sets the log level.
func (l *NopLogger) SetLevel(level ports.Level) {
	l.level = level
}

// New builds the logger selected by the CLI flags.
func New(level string, jsonFormat, quiet bool, opts ...ConsoleLoggerOption) (ports.Logger, error) {
	if quiet {
		return NewNopLogger(), nil
	}
	lvl, err := ports.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	base := []ConsoleLoggerOption{WithLevel(lvl), WithJSONFormat(jsonFormat)}
	return NewConsoleLogger(append(base, opts...)...), nil
}

var _ ports.Logger = (*NopLogger)(nil)
