package sgmail

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// newLogger builds the client logger from LoggingConfig.
func newLogger(cfg LoggingConfig) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}

	var w io.Writer
	switch cfg.Output {
	case "stdout":
		w = os.Stdout
	case "discard":
		w = io.Discard
	default:
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
