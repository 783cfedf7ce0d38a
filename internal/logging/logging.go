// Package logging provides the structured logger shared by the asset cache
// components. It is a thin wrapper over log/slog that adds a no-op mode and a
// few helpers for logging sync operations consistently.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Level represents a logging level.
type Level int

// Supported logging levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config holds configuration for the logger.
type Config struct {
	// Level sets the minimum log level.
	Level Level
	// EnableCallerInfo includes file and line number in logs.
	EnableCallerInfo bool
	// Output is where log lines are written. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Logger provides structured logging. A nil *Logger is valid and discards
// everything, so components can hold an optional logger without checks.
type Logger struct {
	logger *slog.Logger
}

// New creates a logger writing slog text records with the given configuration.
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.EnableCallerInfo,
	})

	return &Logger{logger: slog.New(handler)}
}

// NewNop creates a logger that discards all messages.
func NewNop() *Logger {
	return &Logger{}
}

// Debug logs debug-level messages.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.DebugContext(ctx, msg, args...)
}

// Info logs info-level messages.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.InfoContext(ctx, msg, args...)
}

// Warn logs warning-level messages.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.WarnContext(ctx, msg, args...)
}

// Error logs error-level messages.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.ErrorContext(ctx, msg, args...)
}

// With returns a logger with additional context fields.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.logger == nil {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithOperation returns a logger with operation context.
func (l *Logger) WithOperation(op Operation) *Logger {
	return l.With("operation", string(op))
}

// WithURL returns a logger with asset url context.
func (l *Logger) WithURL(url string) *Logger {
	return l.With("url", url)
}

// Operation names a unit of work for logging.
type Operation string

// Operations performed by the sync engine.
const (
	OpLoadManifest  Operation = "load_manifest"
	OpSaveManifest  Operation = "save_manifest"
	OpListCache     Operation = "list_cache"
	OpFetchCatalog  Operation = "fetch_catalog"
	OpReconcile     Operation = "reconcile"
	OpDownloadAsset Operation = "download_asset"
	OpPrune         Operation = "prune"
)

// LogOperation logs the outcome of an operation with its duration.
func LogOperation(
	ctx context.Context,
	logger *Logger,
	op Operation,
	duration time.Duration,
	err error,
	args ...any,
) {
	if logger == nil {
		return
	}

	fields := []any{
		"operation", string(op),
		"duration_ms", duration.Milliseconds(),
		"success", err == nil,
	}
	fields = append(fields, args...)

	if err != nil {
		fields = append(fields, "error", err.Error())
		logger.Warn(ctx, "operation failed", fields...)
		return
	}
	logger.Debug(ctx, "operation completed", fields...)
}

// LogPrune logs the result of a pruning pass.
func LogPrune(ctx context.Context, logger *Logger, removed, failed int, duration time.Duration) {
	if logger == nil {
		return
	}

	logger.Info(ctx, "cache prune completed",
		"files_removed", removed,
		"files_failed", failed,
		"duration_ms", duration.Milliseconds())
}

// ParseLevel parses a string log level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}
