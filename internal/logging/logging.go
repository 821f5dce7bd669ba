// Package logging provides the structured logger used across design-drop.
//
// It keeps a small map-based API (Info(msg, fields)) so call sites stay
// readable, and delegates encoding, levels and sinks to zap.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names accepted by New and Configure.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Logger is a thin wrapper that turns field maps into zap fields.
type Logger struct {
	l *zap.Logger
}

var (
	mu            sync.RWMutex
	defaultLogger = &Logger{l: zap.NewNop()}

	// globalLogger backs the package-level functions, which add one frame.
	globalLogger = &Logger{l: zap.NewNop()}
)

// New builds a zap-backed logger. format "json" selects the production
// encoder; anything else gets the human-readable development encoder.
func New(level, format string) (*Logger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.DisableStacktrace = true

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{l: zl}, nil
}

// NewFromZap wraps an existing zap logger, e.g. zaptest or zap.NewNop.
func NewFromZap(zl *zap.Logger) *Logger {
	return &Logger{l: zl}
}

// Configure replaces the process-wide logger used by the package functions.
func Configure(level, format string) error {
	lg, err := New(level, format)
	if err != nil {
		return err
	}
	SetDefault(lg)
	return nil
}

// SetDefault swaps the process-wide logger.
func SetDefault(lg *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = lg
	globalLogger = &Logger{l: lg.l.WithOptions(zap.AddCallerSkip(1))}
}

// Default returns the process-wide logger.
func Default() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func global() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Sync flushes buffered entries.
func Sync() {
	_ = Default().l.Sync()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// Debug logs a debug message
func (lg *Logger) Debug(msg string, fields map[string]any) {
	lg.l.Debug(msg, toZapFields(fields)...)
}

// Info logs an info message
func (lg *Logger) Info(msg string, fields map[string]any) {
	lg.l.Info(msg, toZapFields(fields)...)
}

// Warn logs a warning message
func (lg *Logger) Warn(msg string, fields map[string]any) {
	lg.l.Warn(msg, toZapFields(fields)...)
}

// Error logs an error message; err may be nil.
func (lg *Logger) Error(msg string, fields map[string]any, err error) {
	zf := toZapFields(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	lg.l.Error(msg, zf...)
}

// With returns a child logger that always carries fields.
func (lg *Logger) With(fields map[string]any) *Logger {
	return &Logger{l: lg.l.With(toZapFields(fields)...)}
}

// Global logging functions

// Debug logs a debug message
func Debug(msg string, fields map[string]any) {
	global().Debug(msg, fields)
}

// Info logs an info message
func Info(msg string, fields map[string]any) {
	global().Info(msg, fields)
}

// Warn logs a warning message
func Warn(msg string, fields map[string]any) {
	global().Warn(msg, fields)
}

// Error logs an error message
func Error(msg string, fields map[string]any, err error) {
	global().Error(msg, fields, err)
}
