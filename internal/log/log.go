package log

import (
	"fmt"
	"io"
	"log/slog"
)

// New builds a logger at the given level whose output is scrubbed of
// credential material.
func New(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	inner := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(NewRedactingHandler(inner)), nil
}
