package logger

import (
	"log/slog"
	"os"
)

var (
	log   *slog.Logger
	level *slog.LevelVar
)

func init() {
	level = new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	if os.Getenv("DEBUG") != "" {
		level.Set(slog.LevelDebug)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	log = slog.New(handler)
}

// SetVerbose lowers the log level to debug so per-file resolution
// traces become visible. Used by the CLI's test mode.
func SetVerbose(v bool) {
	if v {
		level.Set(slog.LevelDebug)
	}
}

// Info logs at info level.
func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}
