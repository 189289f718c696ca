package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's sugared logger for structured key-value logging
type Logger struct {
	sugar *zap.SugaredLogger
}

// New creates a new logger with the specified level and format
func New(level, format string) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), parseLevel(level))
	return &Logger{sugar: zap.New(core).Sugar()}
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// With creates a child logger with additional fields
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sugar: l.sugar.With(args...)}
}

// Debug logs at debug level with key-value pairs
func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

// Info logs at info level with key-value pairs
func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

// Warn logs at warn level with key-value pairs
func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

// Error logs at error level with key-value pairs
func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// parseLevel converts string level to zapcore.Level
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
