package errors

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a JSON logger writing to stderr so command output on stdout stays clean.
func NewLogger(level slog.Level) *Logger {
	return NewLoggerTo(os.Stderr, level)
}

func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{logger: slog.New(handler)}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewLoggerTo(io.Discard, slog.LevelError+4)
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	l.logger.Error(message, errorArgs(err, args)...)
}

// LogWarnError logs a recovered error at warn level.
func (l *Logger) LogWarnError(err error, message string, args ...any) {
	l.logger.Warn(message, errorArgs(err, args)...)
}

func errorArgs(err error, args []any) []any {
	appErr, ok := As(err)
	if !ok {
		return append([]any{"error", err.Error()}, args...)
	}

	logArgs := []any{
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message,
	}
	if appErr.Cause != nil {
		logArgs = append(logArgs, "error_cause", appErr.Cause.Error())
	}
	for key, value := range appErr.Context {
		logArgs = append(logArgs, key, value)
	}
	return append(logArgs, args...)
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// With returns a logger carrying the given attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// Slog exposes the underlying slog.Logger for libraries that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	return NewLogger(slogLevel), nil
}
