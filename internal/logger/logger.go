package logger

import (
	"io"
	"log/slog"
	"os"
)

var Log = slog.Default()

var level slog.LevelVar

// Init initializes the global logger. The level can be changed later
// with SetLevel without rebuilding the handler.
func Init(levelStr string, logFile string) error {
	level.Set(parseLevel(levelStr))

	// Set up multi-writer (stderr + file)
	var writers []io.Writer
	writers = append(writers, os.Stderr)

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: &level,
	})

	Log = slog.New(handler)
	slog.SetDefault(Log)

	return nil
}

// SetLevel adjusts the level of the running logger; used by config
// hot reload.
func SetLevel(levelStr string) {
	level.Set(parseLevel(levelStr))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
