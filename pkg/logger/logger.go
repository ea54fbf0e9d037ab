// Package logger provides structured logging for the mentorship hub.
// It keeps a small field-based API on top of zap so call sites never import
// zap directly.
package logger

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log message.
type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
	LevelFatal = zapcore.FatalLevel
)

// ParseLevel parses a string into a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Field represents a key-value pair for structured logging.
type Field = zap.Field

// Common field constructors.
func String(key, value string) Field { return zap.String(key, value) }
func Int(key string, value int) Field { return zap.Int(key, value) }
func Duration(key string, value time.Duration) Field {
	return zap.Duration(key, value)
}
func Time(key string, value time.Time) Field { return zap.Time(key, value) }
func Any(key string, value any) Field { return zap.Any(key, value) }

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.Error(err)
}

// Logger wraps a zap.Logger.
type Logger struct {
	z *zap.Logger
}

// Options configures the logger.
type Options struct {
	Level Level
	// Format is "json" or "console".
	Format    string
	AddCaller bool
	// Development switches to zap's development config (stack traces on warn).
	Development bool
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Level:     LevelInfo,
		Format:    "json",
		AddCaller: true,
	}
}

// New creates a new Logger with the given options.
func New(opts Options) *Logger {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if opts.Format == "console" {
		cfg.Encoding = "console"
	} else {
		cfg.Encoding = "json"
	}

	cfg.Level = zap.NewAtomicLevelAt(opts.Level)
	cfg.DisableCaller = !opts.AddCaller
	cfg.OutputPaths = []string{"stdout"}

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	return &Logger{z: z}
}

// Default creates a logger with default options.
func Default() *Logger {
	return New(DefaultOptions())
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{z: z.WithOptions(zap.AddCallerSkip(1))}
}

// With returns a new Logger with the given fields added.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

// Named adds a sub-scope to the logger's name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{z: l.z.Named(name)}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...Field) { l.z.Info(msg, fields...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...Field) { l.z.Warn(msg, fields...) }

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or returns a default logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

// FromContextOr retrieves the logger from context, or returns fallback.
// A nil fallback behaves like FromContext.
func FromContextOr(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return Default()
}

// RequestIDKey is a common field key for request tracing.
const RequestIDKey = "request_id"

// WithRequestID returns a logger with request ID field added.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With(String(RequestIDKey, requestID))
}

// Domain-specific field helpers.
func MentorshipID(id string) Field { return String("mentorship_id", id) }
func MentorID(id string) Field { return String("mentor_id", id) }
func CardID(id string) Field { return String("card_id", id) }
func CollabRequestID(id string) Field { return String("collaboration_request_id", id) }
func Tier(t int) Field { return Int("tier", t) }
func Code(code string) Field { return String("code", code) }
func Component(name string) Field { return String("component", name) }
func Operation(name string) Field { return String("operation", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
