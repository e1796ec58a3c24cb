package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default slog handler, `verbose` enables debug
// level logs which include every outgoing request.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
