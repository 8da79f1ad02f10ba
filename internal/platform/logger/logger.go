package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog.
// Level defaults to info; FLEETGATE_LOG_LEVEL=debug turns on debug output.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("FLEETGATE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
