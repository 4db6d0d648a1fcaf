package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Leveled logging facade shared by all services. Call sites use the
// package-level printf-style helpers; the backend is a zap SugaredLogger
// so production gets structured JSON output for free.

var (
	mu    sync.RWMutex
	sugar *zap.SugaredLogger
	lvl   zap.AtomicLevel
)

func init() {
	lvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	l, _ := cfg.Build(zap.AddCallerSkip(1))
	sugar = l.Sugar()
}

// Init configures the global level and output encoding. env "production"
// switches to JSON encoding; level is case-insensitive (debug|info|warn|error).
// Call early during startup. Default level is Info.
func Init(env, level string) {
	mu.Lock()
	defer mu.Unlock()

	parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	lvl = zap.NewAtomicLevelAt(parsed)

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return
	}
	sugar = l.Sugar()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debugf(format string, v ...interface{}) { get().Debugf(format, v...) }
func Infof(format string, v ...interface{})  { get().Infof(format, v...) }
func Warnf(format string, v ...interface{})  { get().Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { get().Errorf(format, v...) }
func Fatalf(format string, v ...interface{}) { get().Fatalf(format, v...) }

// Debug/Info/Warn/Error helpers that accept a single string
func Debug(v string) { get().Debug(v) }
func Info(v string)  { get().Info(v) }
func Warn(v string)  { get().Warn(v) }
func Error(v string) { get().Error(v) }

// Sync flushes buffered log entries. Call on shutdown.
func Sync() { _ = get().Sync() }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return lvl.Level().String()
}
