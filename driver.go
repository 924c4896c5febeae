package commando

import (
	"context"
	"log/slog"
	"regexp"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/commando/internal/cli"
	"github.com/wagiedev/commando/internal/errors"
	"github.com/wagiedev/commando/internal/matcher"
	"github.com/wagiedev/commando/internal/subprocess"
)

// process is the part of a subprocess the driver talks to after spawning.
type process interface {
	Write(data []byte)
	CloseInput()
	Kill() error
	Pid() int
}

// Compile-time verification that subprocess.Process satisfies process.
var _ process = (*subprocess.Process)(nil)

// Driver runs a command and answers its output with scripted input.
//
// Matchers are evaluated in registration order against every stdout chunk;
// the first match fires and the remaining matchers are skipped for that
// chunk. A Driver is single-use.
type Driver struct {
	id       string
	log      *slog.Logger
	echo     *slog.Logger
	options  *Options
	command  *cli.Command
	matchers *matcher.Set

	mu      sync.Mutex // Protects the fields below
	state   State
	proc    process
	onError []func(text string)
	onExit  []func(Exit)
	exit    Exit

	done chan struct{}
}

// New creates a driver for command, a whitespace-separated executable and
// argument list. The command is not spawned until Start or Run.
//
// Returns ErrEmptyCommand if command holds no executable.
func New(command string, opts ...Option) (*Driver, error) {
	cmd, err := cli.Parse(command)
	if err != nil {
		return nil, err
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	// Without an injected logger, output is still echoed to the process-wide
	// default logger unless silenced.
	echo := options.Logger
	if echo == nil {
		echo = slog.Default()
	}

	id := ulid.Make().String()

	return &Driver{
		id:       id,
		log:      log.With("component", "driver", "session_id", id),
		echo:     echo.With("component", "driver", "session_id", id),
		options:  options,
		command:  cmd,
		matchers: matcher.NewSet(),
		done:     make(chan struct{}),
	}, nil
}

// ID returns the unique session identifier of this driver.
func (d *Driver) ID() string {
	return d.id
}

// Command returns the normalised command line.
func (d *Driver) Command() string {
	return d.command.String()
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// Pid returns the subprocess id, or 0 if it is not running yet.
func (d *Driver) Pid() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.proc == nil {
		return 0
	}

	return d.proc.Pid()
}

// When registers a matcher that writes the responder's answer to stdin.
//
// The matcher is removed after its first match unless MatchMany is given.
// A nil responder fires without writing anything. Safe to call before and
// while the subprocess runs.
func (d *Driver) When(pattern *regexp.Regexp, respond Responder, opts ...MatcherOption) *Driver {
	options := applyMatcherOptions(opts)

	d.matchers.Add(&matcher.Matcher{
		Pattern:   pattern,
		Respond:   respond,
		MatchMany: options.MatchMany,
	})

	return d
}

// EndWhen registers a matcher that terminates the subprocess.
//
// The responder, if any, is called for its side effects; its return value
// is never written because termination takes precedence over further input.
func (d *Driver) EndWhen(pattern *regexp.Regexp, respond Responder, opts ...MatcherOption) *Driver {
	options := applyMatcherOptions(opts)

	d.matchers.Add(&matcher.Matcher{
		Pattern:   pattern,
		Respond:   respond,
		MatchMany: options.MatchMany,
		Terminal:  true,
	})

	return d
}

// OnError subscribes to stderr output. Each call receives one decoded chunk.
func (d *Driver) OnError(fn func(text string)) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.onError = append(d.onError, fn)

	return d
}

// OnExit subscribes to subprocess termination. A clean exit, a failure and
// a kill all notify subscribers exactly once; inspect Exit to tell them
// apart. Subscribing after the driver exited calls fn immediately.
func (d *Driver) OnExit(fn func(Exit)) *Driver {
	d.mu.Lock()

	if d.state == StateExited && d.proc != nil {
		exit := d.exit
		d.mu.Unlock()
		fn(exit)

		return d
	}

	d.onExit = append(d.onExit, fn)
	d.mu.Unlock()

	return d
}

// Start spawns the subprocess.
//
// Cancelling ctx kills the subprocess. Returns ErrAlreadyStarted on a
// second call and *SpawnError if the process could not be started.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateIdle {
		return errors.ErrAlreadyStarted
	}

	inv, err := cli.Resolve(d.command, d.options)
	if err != nil {
		d.fail(err)

		return err
	}

	d.log.Debug("Resolved command", "path", inv.Path, "args", inv.Args, "dir", inv.Dir)

	proc := subprocess.New(d.log, inv, d.options.PTY)

	if err := proc.Start(ctx, subprocess.Handlers{
		Stdout: d.handleStdout,
		Stderr: d.handleStderr,
	}); err != nil {
		d.fail(err)

		return err
	}

	d.proc = proc
	d.state = StateRunning

	go d.awaitExit(proc)

	return nil
}

// fail records a start failure. Callers must hold d.mu.
func (d *Driver) fail(err error) {
	d.state = StateExited
	d.exit = Exit{Code: -1, Err: err}
	close(d.done)
}

// Run starts the subprocess and waits for it to exit.
func (d *Driver) Run(ctx context.Context) (Exit, error) {
	if err := d.Start(ctx); err != nil {
		return Exit{}, err
	}

	return d.Wait(ctx)
}

// Wait blocks until the subprocess has exited and its output is drained.
//
// The returned error is only about waiting: ErrNotStarted or the context
// error. How the subprocess ended is reported in Exit.
func (d *Driver) Wait(ctx context.Context) (Exit, error) {
	if d.State() == StateIdle {
		return Exit{}, errors.ErrNotStarted
	}

	select {
	case <-d.done:
		d.mu.Lock()
		defer d.mu.Unlock()

		return d.exit, nil
	case <-ctx.Done():
		return Exit{}, ctx.Err()
	}
}

// Done is closed once the subprocess has exited and all exit subscribers
// have been notified.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Send writes text to the subprocess stdin. The write is queued and never
// blocks.
func (d *Driver) Send(text string) error {
	proc, err := d.running()
	if err != nil {
		return err
	}

	proc.Write([]byte(text))

	return nil
}

// CloseInput closes the subprocess stdin once queued writes are flushed.
func (d *Driver) CloseInput() error {
	proc, err := d.running()
	if err != nil {
		return err
	}

	proc.CloseInput()

	return nil
}

// Kill terminates the subprocess. Safe to call more than once.
func (d *Driver) Kill() error {
	d.mu.Lock()
	proc := d.proc
	d.mu.Unlock()

	if proc == nil {
		return errors.ErrNotStarted
	}

	return proc.Kill()
}

func (d *Driver) running() (process, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateIdle:
		return nil, errors.ErrNotStarted
	case StateExited:
		return nil, errors.ErrStdinClosed
	default:
		return d.proc, nil
	}
}

func (d *Driver) awaitExit(proc *subprocess.Process) {
	exit := proc.Exit()

	d.mu.Lock()
	d.state = StateExited
	d.exit = exit
	subscribers := d.onExit
	d.onExit = nil
	d.mu.Unlock()

	d.log.Debug("Notifying exit subscribers", "subscribers", len(subscribers))

	for _, fn := range subscribers {
		fn(exit)
	}

	close(d.done)
}

// handleStdout reacts to one stdout chunk. Chunks are delivered one at a
// time by the subprocess pump, so this never runs concurrently with itself.
func (d *Driver) handleStdout(chunk []byte) {
	text := string(chunk)

	if !d.options.Silent {
		d.echo.Info("Process output", "output", text)
	}

	res, err := d.matchers.Dispatch(text)
	if err != nil {
		d.reportPanic(err)

		return
	}

	if !res.Matched() {
		d.log.Debug("No matcher for output", "chunk_len", len(chunk))

		return
	}

	d.log.Debug("Matcher fired",
		"pattern", res.Matcher.Pattern.String(),
		"match_many", res.Matcher.MatchMany,
		"terminate", res.Terminate,
	)

	proc := d.process()

	if res.Terminate {
		if err := proc.Kill(); err != nil {
			d.log.Error("Failed to kill subprocess", "error", err)
		}

		return
	}

	if res.Response != "" {
		proc.Write([]byte(res.Response))
	}
}

func (d *Driver) handleStderr(chunk []byte) {
	text := string(chunk)

	d.mu.Lock()
	subscribers := d.onError
	d.mu.Unlock()

	d.log.Debug("Process error output", "output", text)

	for _, fn := range subscribers {
		fn(text)
	}
}

// process returns the running subprocess. Blocks while Start is still
// spawning, since the first chunk can arrive before the handle is stored.
func (d *Driver) process() process {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.proc
}

func (d *Driver) reportPanic(err error) {
	if d.options.PanicHandler != nil {
		d.options.PanicHandler(err)

		return
	}

	d.log.Error("Responder panicked", "error", err)
}
