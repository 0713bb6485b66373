package logging

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// LogFields represents structured logging key/value pairs used across botwire.
type LogFields map[string]any

// ServiceLogger is the minimal logging contract required by the runtime and
// its transports. Applications can adapt their existing loggers instead of
// depending on slog directly.
type ServiceLogger interface {
	With(fields LogFields) ServiceLogger
	Debug(msg string, fields LogFields)
	Info(msg string, fields LogFields)
	Error(msg string, err error, fields LogFields)
	Trace(msg string, fields LogFields)
}

// levelTrace sits below slog.LevelDebug so trace output stays opt-in.
const levelTrace = slog.LevelDebug - 4

// NewSlogServiceLogger wraps a slog.Logger so it satisfies the ServiceLogger
// interface.
func NewSlogServiceLogger(log *slog.Logger) ServiceLogger {
	if log == nil {
		panic("botwire: slog logger cannot be nil")
	}
	return &slogServiceLogger{inner: log}
}

// Nop returns a logger that discards everything. Useful in tests.
func Nop() ServiceLogger {
	return nopLogger{}
}

type slogServiceLogger struct {
	inner *slog.Logger
}

func (s *slogServiceLogger) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return s
	}
	return &slogServiceLogger{inner: s.inner.With(toArgs(fields)...)}
}

func (s *slogServiceLogger) Debug(msg string, fields LogFields) {
	s.inner.Debug(msg, toArgs(fields)...)
}

func (s *slogServiceLogger) Info(msg string, fields LogFields) {
	s.inner.Info(msg, toArgs(fields)...)
}

func (s *slogServiceLogger) Error(msg string, err error, fields LogFields) {
	args := toArgs(fields)
	if err != nil {
		args = append(args, "error", err)
	}
	s.inner.Error(msg, args...)
}

func (s *slogServiceLogger) Trace(msg string, fields LogFields) {
	s.inner.Log(context.Background(), levelTrace, msg, toArgs(fields)...)
}

func toArgs(fields LogFields) []any {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}
	return args
}

type nopLogger struct{}

func (nopLogger) With(LogFields) ServiceLogger   { return nopLogger{} }
func (nopLogger) Debug(string, LogFields)        {}
func (nopLogger) Info(string, LogFields)         {}
func (nopLogger) Error(string, error, LogFields) {}
func (nopLogger) Trace(string, LogFields)        {}

type watermillAdapter struct {
	base ServiceLogger
}

// NewWatermillAdapter converts a ServiceLogger into a Watermill LoggerAdapter
// so the event bridge and application-side pub/sub reuse the same logger.
func NewWatermillAdapter(log ServiceLogger) watermill.LoggerAdapter {
	if log == nil {
		panic("botwire: ServiceLogger cannot be nil")
	}
	return &watermillAdapter{base: log}
}

func (a *watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.base.Error(msg, err, LogFields(fields))
}

func (a *watermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.base.Info(msg, LogFields(fields))
}

func (a *watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.base.Debug(msg, LogFields(fields))
}

func (a *watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.base.Trace(msg, LogFields(fields))
}

func (a *watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillAdapter{base: a.base.With(LogFields(fields))}
}
