// Package logger wraps a process-wide zap logger with key/value helpers.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions attaches a structured field to a log line.
type LoggerOptions struct {
	Key  string
	Data any
}

var (
	mu     sync.RWMutex
	Logger = zap.NewNop()
)

// Init replaces the global logger. format is "json" or "console".
func Init(level, format string) error {
	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set installs l as the global logger. Tests use it to capture output.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	Logger = l
}

// L returns the global logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return Logger
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}

func fields(payload []LoggerOptions) []zapcore.Field {
	zapFields := make([]zapcore.Field, 0, len(payload))
	for _, data := range payload {
		if err, ok := data.Data.(error); ok {
			zapFields = append(zapFields, zap.NamedError(data.Key, err))
			continue
		}
		zapFields = append(zapFields, zap.Any(data.Key, data.Data))
	}
	return zapFields
}

// Debug logs debug level messages.
func Debug(msg string, payload ...LoggerOptions) {
	L().Debug(msg, fields(payload)...)
}

// Info logs info level messages.
func Info(msg string, payload ...LoggerOptions) {
	L().Info(msg, fields(payload)...)
}

// Warning logs warning messages.
func Warning(msg string, payload ...LoggerOptions) {
	L().Warn(msg, fields(payload)...)
}

// Error logs error messages. Describe the incident in msg and pass the
// error through an option with key "error".
func Error(msg string, payload ...LoggerOptions) {
	L().Error(msg, fields(payload)...)
}
