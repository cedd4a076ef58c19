package util

import (
	"log/slog"
	"os"
	"strings"
)

var logger *slog.Logger

// InitLogger installs the process-wide JSON logger. LOG_LEVEL picks the
// minimum level (debug, info, warn, error); anything else means info.
func InitLogger() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	}))
	slog.SetDefault(logger)
}

func GetLogger() *slog.Logger {
	if logger == nil {
		InitLogger()
	}
	return logger
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
