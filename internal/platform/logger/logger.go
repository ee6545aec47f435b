package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON in production so the
// collector can index fields; text locally for readability.
func New(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	return slog.New(handler)
}
