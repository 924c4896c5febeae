package commando

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output. A Driver without an
// injected logger uses it for diagnostics.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
