// Package logging holds the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	logger atomic.Pointer[slog.Logger]
	level  = new(slog.LevelVar)
)

func init() {
	Reset()
}

// Logger returns the global logger. By default it writes text to stderr at
// level info.
func Logger() *slog.Logger {
	return logger.Load()
}

// SetLogger replaces the global logger. A nil value is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// SetOutput sends text logs to w, keeping the current level.
func SetOutput(w io.Writer) {
	SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func Reset() {
	level.Set(slog.LevelInfo)
	SetOutput(os.Stderr)
}

// EnableVerbose lowers the level of the default handlers to debug.
func EnableVerbose() {
	level.Set(slog.LevelDebug)
}
