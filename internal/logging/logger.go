// Package logging provides structured logging for AI Forge.
//
// The global logger is configured from the environment:
// ENVIRONMENT=production selects JSON output, LOG_LEVEL sets the minimum
// level, and LOG_FILE additionally writes rotated JSON logs to disk.
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	logger  *zap.Logger
	once    sync.Once
	logFile *lumberjack.Logger
)

// Init initializes the global logger. Safe to call multiple times.
func Init() {
	once.Do(func() {
		l := build()
		mu.Lock()
		if logger == nil {
			logger = l
		}
		mu.Unlock()
	})
}

func build() *zap.Logger {
	var cfg zap.Config
	if os.Getenv("ENVIRONMENT") == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if lvl, ok := parseLevel(os.Getenv("LOG_LEVEL")); ok {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build()
	if err != nil {
		// Fallback to nop logger
		return zap.NewNop()
	}

	if path := os.Getenv("LOG_FILE"); path != "" {
		logFile = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		enc := zap.NewProductionEncoderConfig()
		enc.TimeKey = "ts"
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(logFile), cfg.Level)
		l = l.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	return l
}

func parseLevel(s string) (zapcore.Level, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return zapcore.InfoLevel, false
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel, false
	}
	return lvl, true
}

// L returns the global structured logger
func L() *zap.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init()
		mu.RLock()
		l = logger
		mu.RUnlock()
	}
	return l
}

// S returns the global sugared logger (printf-style)
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// SetLogger replaces the global logger and returns a function restoring the
// previous one. Intended for tests that observe log output.
func SetLogger(l *zap.Logger) func() {
	prev := L()
	mu.Lock()
	logger = l
	mu.Unlock()

	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

// Sync flushes any buffered log entries. Call before app exit.
func Sync() {
	if l := L(); l != nil {
		_ = l.Sync()
	}
	if logFile != nil {
		_ = logFile.Close()
	}
}

// WithContext returns a logger with additional structured fields
func WithContext(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}
