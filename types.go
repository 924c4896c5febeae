package commando

import (
	"github.com/wagiedev/commando/internal/config"
	"github.com/wagiedev/commando/internal/matcher"
	"github.com/wagiedev/commando/internal/subprocess"
)

// Re-export types from internal packages

// Options configures a Driver. Use the With* functions rather than
// filling it directly.
type Options = config.Options

// MatcherOptions configures a single matcher.
type MatcherOptions = config.MatcherOptions

// Responder produces the next input for the subprocess from an output chunk.
// Returning an empty string writes nothing.
type Responder = matcher.Responder

// Exit describes how the subprocess terminated.
type Exit = subprocess.Exit

// Canned responses for yes/no prompts.
const (
	Yes = "Yes\n"
	No  = "no\n"
)

// Reply returns a Responder that always answers text.
func Reply(text string) Responder {
	return func(string) string {
		return text
	}
}

// State is the lifecycle state of a Driver.
type State int

const (
	// StateIdle is a driver that has not been started.
	StateIdle State = iota
	// StateRunning is a driver whose subprocess is alive.
	StateRunning
	// StateExited is a driver whose subprocess has exited or failed to spawn.
	StateExited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}
