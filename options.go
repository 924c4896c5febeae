package commando

import (
	"log/slog"
	"maps"

	"github.com/wagiedev/commando/internal/config"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithLogger sets the logger for diagnostics and output echo.
// If not set, diagnostics are discarded and output is echoed to
// slog.Default() unless WithSilent is set.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithSilent suppresses the echo of subprocess output to the logger.
func WithSilent(silent bool) Option {
	return func(o *Options) {
		o.Silent = silent
	}
}

// WithCmdPath sets the base directory the executable is resolved against.
func WithCmdPath(dir string) Option {
	return func(o *Options) {
		o.CmdPath = dir
	}
}

// WithWorkingDir sets the working directory for the subprocess.
// Defaults to the caller's working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds environment variables on top of the caller's environment.
// Multiple calls accumulate; later values win.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithPTY runs the subprocess on a pseudo-terminal. Programs that only
// prompt when attached to a terminal need this. Stdout and stderr share the
// terminal, so OnError handlers are not called in this mode.
func WithPTY(enabled bool) Option {
	return func(o *Options) {
		o.PTY = enabled
	}
}

// WithPanicHandler sets the function that receives *ResponderPanicError
// values when a responder panics. By default the panic is logged.
func WithPanicHandler(handler func(error)) Option {
	return func(o *Options) {
		o.PanicHandler = handler
	}
}

// MatcherOption configures a matcher registered with When or EndWhen.
type MatcherOption func(*config.MatcherOptions)

// MatchMany keeps the matcher registered after it fires, so it answers
// every matching chunk for the rest of the session.
func MatchMany() MatcherOption {
	return func(o *config.MatcherOptions) {
		o.MatchMany = true
	}
}

func applyMatcherOptions(opts []MatcherOption) *config.MatcherOptions {
	options := &config.MatcherOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}
