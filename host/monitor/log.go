package monitor

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies a part of the monitor for log filtering
type Component string

const (
	ComponentSerial  Component = "serial"
	ComponentCapture Component = "capture"
	ComponentEcho    Component = "echo"
)

var (
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
	logMutex sync.RWMutex
)

func init() {
	logLevel.Set(slog.LevelWarn)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// SetLogLevel sets the minimum level of monitor logging
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLogOutput sends monitor logging as text to w
func SetLogOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// SetLogger replaces the monitor logger
func SetLogger(l *slog.Logger) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logger = l
}

func current() *slog.Logger {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return logger
}

func logDebug(c Component, msg string, args ...any) {
	current().Debug(msg, append([]any{"component", string(c)}, args...)...)
}

func logInfo(c Component, msg string, args ...any) {
	current().Info(msg, append([]any{"component", string(c)}, args...)...)
}

func logWarn(c Component, msg string, args ...any) {
	current().Warn(msg, append([]any{"component", string(c)}, args...)...)
}
