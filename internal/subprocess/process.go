package subprocess

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/commando/internal/cli"
	"github.com/wagiedev/commando/internal/errors"
)

const (
	// readBufferSize is the size of a single read from stdout or stderr.
	readBufferSize = 32 * 1024
	// maxStderrBufferSize is the maximum size for the stderr buffer.
	// Stderr handlers receive every chunk, but the buffer kept for
	// ProcessError stops growing after this limit.
	maxStderrBufferSize = 1024 * 1024 // 1MB
	// endOfTransmission is written to a terminal to signal end of input.
	endOfTransmission = "\x04"
)

// Exit describes how the subprocess terminated.
type Exit struct {
	// Code is the exit code, or -1 if the process was terminated by a signal.
	Code int

	// Killed is true when the process did not exit cleanly after Kill was
	// called or the context passed to Start was cancelled.
	Killed bool

	// Err is set when the process failed on its own (non-zero exit) or its
	// output could not be read. It is nil for clean exits and intentional kills.
	Err error
}

// Success reports whether the process exited on its own with code 0.
func (e Exit) Success() bool {
	return e.Code == 0 && !e.Killed && e.Err == nil
}

// Handlers receive output chunks. Each handler is called from a single
// goroutine, so calls to the same handler never overlap.
type Handlers struct {
	Stdout func(chunk []byte)
	Stderr func(chunk []byte)
}

// Process is a spawned subprocess.
type Process struct {
	log    *slog.Logger
	inv    *cli.Invocation
	usePTY bool

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
	ptmx   *os.File

	mu          sync.Mutex // Protects the fields below
	queue       [][]byte   // Pending stdin writes; nil entry closes input
	killed      bool       // Whether Kill() has been called (intentional termination)
	inputClosed bool       // Whether CloseInput() was called or stdin failed

	wake chan struct{}
	done chan struct{}
	exit Exit
}

// New creates a process for the given invocation. Nothing is spawned until Start.
func New(log *slog.Logger, inv *cli.Invocation, usePTY bool) *Process {
	return &Process{
		log:    log.With("component", "subprocess"),
		inv:    inv,
		usePTY: usePTY,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start spawns the subprocess and begins delivering output to h.
//
// Cancelling ctx kills the subprocess. Returns *errors.SpawnError if the
// process could not be started.
func (p *Process) Start(ctx context.Context, h Handlers) error {
	p.log.Info("Starting subprocess", "path", p.inv.Path, "args", p.inv.Args, "pty", p.usePTY)

	//nolint:gosec // G204: running a caller-provided command is the purpose of this package
	cmd := exec.CommandContext(ctx, p.inv.Path, p.inv.Args...)
	cmd.Dir = p.inv.Dir
	cmd.Env = p.inv.Env

	if p.usePTY {
		if err := p.startPTY(cmd); err != nil {
			return err
		}
	} else if err := p.startPipes(cmd); err != nil {
		return err
	}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	p.log.Info("Subprocess started", "pid", cmd.Process.Pid)

	go p.writeLoop()
	go p.supervise(ctx, h)

	return nil
}

func (p *Process) startPipes(cmd *exec.Cmd) error {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.SpawnError{Path: p.inv.Path, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.SpawnError{Path: p.inv.Path, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errors.SpawnError{Path: p.inv.Path, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		p.log.Error("Failed to start subprocess", "error", err)

		return &errors.SpawnError{Path: p.inv.Path, Err: err}
	}

	p.stdin = stdin
	p.stdout = stdout
	p.stderr = stderr

	return nil
}

func (p *Process) startPTY(cmd *exec.Cmd) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		p.log.Error("Failed to start subprocess on pty", "error", err)

		return &errors.SpawnError{Path: p.inv.Path, Err: fmt.Errorf("start pty: %w", err)}
	}

	p.ptmx = ptmx
	p.stdin = ptmx
	p.stdout = ptmx

	return nil
}

// supervise pumps the output streams, then reaps the process.
func (p *Process) supervise(ctx context.Context, h Handlers) {
	defer close(p.done)
	defer p.log.Debug("Subprocess supervisor stopped")

	var (
		stderrMu     sync.Mutex
		stderrBuffer strings.Builder
	)

	var g errgroup.Group

	g.Go(func() error {
		return p.pump(p.stdout, h.Stdout)
	})

	if p.stderr != nil {
		g.Go(func() error {
			return p.pump(p.stderr, func(chunk []byte) {
				stderrMu.Lock()
				if stderrBuffer.Len() < maxStderrBufferSize {
					stderrBuffer.Write(chunk)
				}
				stderrMu.Unlock()

				if h.Stderr != nil {
					h.Stderr(chunk)
				}
			})
		})
	}

	// Reads must complete before Wait. See: https://pkg.go.dev/os/exec#Cmd.StdoutPipe
	readErr := g.Wait()
	waitErr := p.cmd.Wait()

	if p.ptmx != nil {
		_ = p.ptmx.Close()
	}

	p.mu.Lock()
	killed := p.killed
	p.inputClosed = true
	p.mu.Unlock()

	var exit Exit

	exit.Code, exit.Killed = exitStatus(waitErr, killed || ctx.Err() != nil)

	// A kill that lands after the process already exited on its own does not
	// hide that exit.
	if waitErr != nil && !exit.Killed {
		stderrMu.Lock()
		stderrOutput := strings.TrimSpace(stderrBuffer.String())
		stderrMu.Unlock()

		exit.Err = &errors.ProcessError{
			ExitCode: exit.Code,
			Stderr:   stderrOutput,
			Err:      waitErr,
		}
	}

	if exit.Err == nil && readErr != nil && !exit.Killed {
		exit.Err = fmt.Errorf("read output: %w", readErr)
	}

	if exit.Err != nil {
		p.log.Error("Subprocess exited with error", "exit_code", exit.Code, "error", exit.Err)
	} else {
		p.log.Info("Subprocess exited", "exit_code", exit.Code, "killed", exit.Killed)
	}

	p.exit = exit
}

// exitStatus derives the exit code from the result of Wait. The exit counts
// as killed only when a kill was requested and the process actually died
// from a signal.
func exitStatus(waitErr error, killRequested bool) (code int, killed bool) {
	if waitErr == nil {
		return 0, false
	}

	exitErr, ok := stderrors.AsType[*exec.ExitError](waitErr)
	if !ok {
		return -1, killRequested
	}

	// ExitCode is -1 when the process was terminated by a signal.
	code = exitErr.ExitCode()

	return code, code == -1 && killRequested
}

// pump reads r until it is exhausted, handing every chunk to handle.
func (p *Process) pump(r io.Reader, handle func([]byte)) error {
	buf := make([]byte, readBufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 && handle != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			handle(chunk)
		}

		if err == nil {
			continue
		}

		if stderrors.Is(err, io.EOF) {
			return nil
		}

		// A terminal reports EIO once the child side is gone.
		if p.usePTY {
			p.log.Debug("Terminal read finished", "error", err)

			return nil
		}

		return err
	}
}

// Write queues data for the subprocess stdin. It never blocks.
// Data written after input was closed is dropped.
func (p *Process) Write(data []byte) {
	if len(data) == 0 {
		return
	}

	p.mu.Lock()
	if p.inputClosed {
		p.mu.Unlock()
		p.log.Debug("Dropping write to closed stdin", "data_len", len(data))

		return
	}

	p.queue = append(p.queue, append([]byte(nil), data...))
	p.mu.Unlock()

	p.signal()
}

// CloseInput signals end of input after all queued writes are flushed.
// On a terminal this sends an end-of-transmission character instead of
// closing the stream, since the terminal also carries output.
func (p *Process) CloseInput() {
	p.mu.Lock()
	if p.inputClosed {
		p.mu.Unlock()

		return
	}

	if p.usePTY {
		p.queue = append(p.queue, []byte(endOfTransmission))
	}

	p.queue = append(p.queue, nil)
	p.inputClosed = true
	p.mu.Unlock()

	p.signal()
}

func (p *Process) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// writeLoop flushes queued stdin writes in order.
func (p *Process) writeLoop() {
	for {
		select {
		case <-p.wake:
		case <-p.done:
			return
		}

		for {
			data, ok := p.dequeue()
			if !ok {
				break
			}

			if data == nil {
				if !p.usePTY {
					p.log.Debug("Closing stdin pipe")
					_ = p.stdin.Close()
				}

				return
			}

			if _, err := p.stdin.Write(data); err != nil {
				p.log.Debug("Failed to write to stdin", "error", err)

				p.mu.Lock()
				p.inputClosed = true
				p.queue = nil
				p.mu.Unlock()

				return
			}

			p.log.Debug("Wrote to stdin", "data_len", len(data))
		}
	}
}

func (p *Process) dequeue() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return nil, false
	}

	data := p.queue[0]
	p.queue = p.queue[1:]

	return data, true
}

// Kill terminates the subprocess. It's safe to call Kill multiple times or
// on a process that has already exited.
func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}

	select {
	case <-p.done:
		return nil
	default:
	}

	p.killed = true

	p.log.Debug("Killing subprocess", "pid", p.cmd.Process.Pid)

	if err := p.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill subprocess (pid %d): %w", p.cmd.Process.Pid, err)
	}

	return nil
}

// Pid returns the subprocess id, or 0 before Start.
func (p *Process) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

// Done is closed once the subprocess has exited and its output is drained.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exit returns the termination status. Only valid after Done is closed.
func (p *Process) Exit() Exit {
	<-p.done

	return p.exit
}
