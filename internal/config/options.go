// Package config provides configuration types for commando.
package config

import (
	"log/slog"
)

// Options configures a process driver.
type Options struct {
	// Logger is the slog logger for diagnostics and output echo.
	// If nil, diagnostics are discarded and output is echoed to slog.Default().
	Logger *slog.Logger

	// Silent suppresses the echo of every stdout chunk to Logger.
	Silent bool

	// CmdPath is a base directory the executable is resolved against.
	// If empty, the executable is looked up the way os/exec does.
	CmdPath string

	// WorkingDir is the subprocess working directory.
	// If empty, the caller's working directory is used.
	WorkingDir string

	// Env holds extra environment variables merged over the caller's environment.
	Env map[string]string

	// PTY runs the subprocess attached to a pseudo-terminal instead of pipes.
	// Stdout and stderr share the terminal, so no stderr events are emitted.
	PTY bool

	// PanicHandler receives errors for responders that panicked.
	// If nil, the panic is logged at error level.
	PanicHandler func(error)
}

// MatcherOptions configures a single registered matcher.
type MatcherOptions struct {
	// MatchMany keeps the matcher registered after it fires.
	MatchMany bool
}
