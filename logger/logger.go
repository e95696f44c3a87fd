package logger

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	current atomic.Pointer[zap.Logger]
)

func init() {
	current.Store(build("console"))
}

// Init replaces the process logger. format is "json" or "console".
func Init(lvl, format string) {
	SetLevel(lvl)
	current.Store(build(format))
}

func build(format string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level)
	return zap.New(core, zap.AddCaller())
}

func SetLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

func IsDebugEnabled() bool {
	return level.Enabled(zapcore.DebugLevel)
}

// L returns the structured logger.
func L() *zap.Logger {
	return current.Load()
}

// Replace swaps the process logger, returning a func that restores the old one.
func Replace(l *zap.Logger) func() {
	prev := current.Swap(l)
	return func() { current.Store(prev) }
}

func sugar() *zap.SugaredLogger {
	return current.Load().WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func Debugf(format string, v ...any) {
	if !IsDebugEnabled() {
		return
	}
	sugar().Debugf(format, v...)
}

func Infof(format string, v ...any) {
	sugar().Infof(format, v...)
}

func Warnf(format string, v ...any) {
	sugar().Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	sugar().Errorf(format, v...)
}
