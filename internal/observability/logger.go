package observability

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the JSON logger used by every binary. An explicit level wins;
// otherwise dev logs at debug and everything else at info.
func NewLogger(env, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(env, level),
	})

	return slog.New(NewTraceHandler(handler))
}

func parseLevel(env, level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		if env == "dev" {
			return slog.LevelDebug
		}
		return slog.LevelInfo
	}

	if env == "dev" {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}
