package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log *zap.Logger

// TraceIDKey is the context key for trace ID
type TraceIDKey struct{}

// Options configures the global logger
type Options struct {
	Level      string
	Format     string // "json" or "text"
	File       string // optional rotating log file
	MaxSizeMB  int
	MaxAgeDays int
}

// Init initializes the global logger. Console output goes to stderr so
// that command output on stdout stays clean.
func Init(opts Options) {
	Log = New(opts)
}

// New builds a logger without touching the global one
func New(opts Options) *zap.Logger {
	var encCfg zapcore.EncoderConfig
	var consoleEnc zapcore.Encoder

	if opts.Format == "json" {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		consoleEnc = zapcore.NewConsoleEncoder(encCfg)
	}

	level := parseLevel(opts.Level)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level),
	}

	if opts.File != "" {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		rotator := &lumberjack.Logger{
			Filename:  opts.File,
			MaxSize:   opts.MaxSizeMB,
			MaxAge:    opts.MaxAgeDays,
			LocalTime: true,
			Compress:  true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotator), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Sync flushes any buffered log entries
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// WithTraceID creates a logger with trace ID
func WithTraceID(traceID string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log.With(zap.String("trace_id", traceID))
}

// ContextWithTraceID adds trace ID to context
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey{}, traceID)
}

// TraceIDFromContext retrieves trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// FromContext returns the global logger tagged with the context's trace ID, if any
func FromContext(ctx context.Context) *zap.Logger {
	if id := TraceIDFromContext(ctx); id != "" {
		return WithTraceID(id)
	}
	return Named("")
}

// Convenience methods for global logger
func Debug(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Debug(msg, fields...)
	}
}

func Info(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Info(msg, fields...)
	}
}

func Warn(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Warn(msg, fields...)
	}
}

func Error(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Error(msg, fields...)
	}
}

// Named creates a named logger
func Named(name string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	if name == "" {
		return Log
	}
	return Log.Named(name)
}
