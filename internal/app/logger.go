package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Production deployments run with
// LOG_FORMAT=json so the entries land in the log pipeline as-is; anything
// else falls back to the human-readable text handler.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
