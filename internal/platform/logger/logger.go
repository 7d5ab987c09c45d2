package logger

import (
	"log/slog"
	"os"
)

// New returns the structured logger services are built against.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
