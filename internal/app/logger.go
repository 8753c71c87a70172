package app

import (
	"io"
	"log/slog"
)

// newLogger builds the run's isolated logger; the process-wide default is
// never touched. An unrecognized level falls back to info so a typo in
// --log-level never blocks a build.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
