package commando

import "github.com/wagiedev/commando/internal/errors"

// Re-export error types from internal package

// SpawnError indicates the subprocess could not be started.
type SpawnError = errors.SpawnError

// ProcessError indicates the subprocess exited with a non-zero status.
type ProcessError = errors.ProcessError

// ResponderPanicError indicates a responder panicked while handling a chunk.
type ResponderPanicError = errors.ResponderPanicError

// CommandoError is the base interface for all commando errors.
type CommandoError = errors.CommandoError

// Re-export sentinel errors from internal package.
var (
	// ErrEmptyCommand indicates the command string has no executable.
	ErrEmptyCommand = errors.ErrEmptyCommand

	// ErrAlreadyStarted indicates Start was called on a driver that already ran.
	ErrAlreadyStarted = errors.ErrAlreadyStarted

	// ErrNotStarted indicates the driver has not been started.
	ErrNotStarted = errors.ErrNotStarted

	// ErrStdinClosed indicates the subprocess stdin is no longer writable.
	ErrStdinClosed = errors.ErrStdinClosed
)
