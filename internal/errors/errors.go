package errors

import (
	"errors"
	"fmt"
	"strings"
)

// CommandoError is the base interface for all commando errors.
type CommandoError interface {
	error
	IsCommandoError() bool
}

// Compile-time verification that all error types implement CommandoError.
var (
	_ CommandoError = (*SpawnError)(nil)
	_ CommandoError = (*ProcessError)(nil)
	_ CommandoError = (*ResponderPanicError)(nil)
	_ CommandoError = (*JSONDecodeError)(nil)
	_ CommandoError = (*RuleError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrEmptyCommand indicates the command string has no executable.
	ErrEmptyCommand = errors.New("empty command")

	// ErrAlreadyStarted indicates Start was called on a driver that already ran.
	ErrAlreadyStarted = errors.New("driver already started: drivers are single-use, create a new one with New()")

	// ErrNotStarted indicates the driver has not been started.
	ErrNotStarted = errors.New("driver not started")

	// ErrStdinClosed indicates the subprocess stdin is no longer writable.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrNotJSONObject indicates a JSON document is valid but is not an object.
	ErrNotJSONObject = errors.New("JSON content is not an object")

	// ErrNotDirectory indicates a path exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// SpawnError indicates the subprocess could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsCommandoError implements CommandoError.
func (e *SpawnError) IsCommandoError() bool { return true }

// ProcessError indicates the subprocess exited with a non-zero status.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsCommandoError implements CommandoError.
func (e *ProcessError) IsCommandoError() bool { return true }

// ResponderPanicError indicates a responder panicked while handling a chunk.
// The chunk that triggered the responder is preserved.
type ResponderPanicError struct {
	Pattern string
	Chunk   string
	Value   any
}

func (e *ResponderPanicError) Error() string {
	return fmt.Sprintf("responder for %q panicked: %v", e.Pattern, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *ResponderPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}

// IsCommandoError implements CommandoError.
func (e *ResponderPanicError) IsCommandoError() bool { return true }

// JSONDecodeError indicates a file's JSON content could not be parsed.
// This error preserves the path and the raw data that failed to parse.
type JSONDecodeError struct {
	Path    string
	RawData string
	Err     error
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON from %s: %v", e.Path, e.Err)
}

func (e *JSONDecodeError) Unwrap() error {
	return e.Err
}

// IsCommandoError implements CommandoError.
func (e *JSONDecodeError) IsCommandoError() bool { return true }

// RuleError indicates a script rule is invalid.
type RuleError struct {
	Index int
	Match string
	Err   error
}

func (e *RuleError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "rule %d", e.Index)

	if e.Match != "" {
		fmt.Fprintf(&b, " (%q)", e.Match)
	}

	fmt.Fprintf(&b, ": %v", e.Err)

	return b.String()
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// IsCommandoError implements CommandoError.
func (e *RuleError) IsCommandoError() bool { return true }
