package subprocess

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wagiedev/commando/internal/cli"
	"github.com/wagiedev/commando/internal/errors"
)

const exitTimeout = 10 * time.Second

// output collects chunks delivered by a handler.
type output struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (o *output) handle(chunk []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.buf.Write(chunk)
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.buf.String()
}

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires a POSIX shell")
	}
}

// writeScript creates an executable shell script in a temp directory.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "script.sh")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)
	require.NoError(t, err)

	return path
}

func invocation(t *testing.T, path string, args ...string) *cli.Invocation {
	t.Helper()

	return &cli.Invocation{
		Path: path,
		Args: args,
		Dir:  t.TempDir(),
		Env:  os.Environ(),
	}
}

func waitExit(t *testing.T, p *Process) Exit {
	t.Helper()

	select {
	case <-p.Done():
	case <-time.After(exitTimeout):
		_ = p.Kill()
		t.Fatal("subprocess did not exit in time")
	}

	return p.Exit()
}

func TestProcess_Stdout(t *testing.T) {
	skipOnWindows(t)

	var stdout output

	p := New(slog.Default(), invocation(t, "echo", "hello"), false)

	err := p.Start(context.Background(), Handlers{Stdout: stdout.handle})
	require.NoError(t, err)
	require.NotZero(t, p.Pid())

	exit := waitExit(t, p)

	require.True(t, exit.Success())
	require.Equal(t, "hello\n", stdout.String())
}

// TestProcess_StderrAndExitCode tests stderr delivery and ProcessError on non-zero exit.
func TestProcess_StderrAndExitCode(t *testing.T) {
	skipOnWindows(t)

	var stderr output

	script := writeScript(t, "echo oops >&2\nexit 3")
	p := New(slog.Default(), invocation(t, script), false)

	err := p.Start(context.Background(), Handlers{Stderr: stderr.handle})
	require.NoError(t, err)

	exit := waitExit(t, p)

	require.Equal(t, 3, exit.Code)
	require.False(t, exit.Killed)
	require.False(t, exit.Success())
	require.Equal(t, "oops\n", stderr.String())

	procErr, ok := stderrors.AsType[*errors.ProcessError](exit.Err)
	require.True(t, ok)
	require.Equal(t, 3, procErr.ExitCode)
	require.Equal(t, "oops", procErr.Stderr)
}

// TestProcess_WriteAndCloseInput tests queued stdin writes followed by end of input.
func TestProcess_WriteAndCloseInput(t *testing.T) {
	skipOnWindows(t)

	var stdout output

	p := New(slog.Default(), invocation(t, "cat"), false)

	err := p.Start(context.Background(), Handlers{Stdout: stdout.handle})
	require.NoError(t, err)

	p.Write([]byte("ping\n"))
	p.Write([]byte("pong\n"))
	p.CloseInput()

	exit := waitExit(t, p)

	require.True(t, exit.Success())
	require.Equal(t, "ping\npong\n", stdout.String())
}

// TestProcess_WriteAfterCloseDropped tests that writes after CloseInput are discarded.
func TestProcess_WriteAfterCloseDropped(t *testing.T) {
	skipOnWindows(t)

	var stdout output

	p := New(slog.Default(), invocation(t, "cat"), false)

	err := p.Start(context.Background(), Handlers{Stdout: stdout.handle})
	require.NoError(t, err)

	p.Write([]byte("kept\n"))
	p.CloseInput()
	p.Write([]byte("dropped\n"))

	waitExit(t, p)

	require.Equal(t, "kept\n", stdout.String())
}

// TestProcess_Kill tests that an intentional kill is not reported as a failure.
func TestProcess_Kill(t *testing.T) {
	skipOnWindows(t)

	script := writeScript(t, "read answer\necho got $answer")
	p := New(slog.Default(), invocation(t, script), false)

	err := p.Start(context.Background(), Handlers{})
	require.NoError(t, err)

	require.NoError(t, p.Kill())

	exit := waitExit(t, p)

	require.True(t, exit.Killed)
	require.Equal(t, -1, exit.Code)
	require.NoError(t, exit.Err)

	// Killing an exited process is a no-op.
	require.NoError(t, p.Kill())
}

// TestProcess_ContextCancel tests that cancelling the start context kills the process.
func TestProcess_ContextCancel(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())

	script := writeScript(t, "read answer")
	p := New(slog.Default(), invocation(t, script), false)

	err := p.Start(ctx, Handlers{})
	require.NoError(t, err)

	cancel()

	exit := waitExit(t, p)

	require.True(t, exit.Killed)
	require.NoError(t, exit.Err)
}

// TestProcess_SpawnFailure tests that a missing executable surfaces as SpawnError.
func TestProcess_SpawnFailure(t *testing.T) {
	p := New(slog.Default(), invocation(t, "/nonexistent/path/to/binary"), false)

	err := p.Start(context.Background(), Handlers{})

	require.Error(t, err)
	require.IsType(t, &errors.SpawnError{}, err)
	require.Zero(t, p.Pid())
	require.NoError(t, p.Kill())
}

// TestProcess_PTY tests running the subprocess on a pseudo-terminal.
func TestProcess_PTY(t *testing.T) {
	skipOnWindows(t)

	var stdout output

	script := writeScript(t, "if [ -t 0 ]; then echo tty; else echo notty; fi")
	p := New(slog.Default(), invocation(t, script), true)

	err := p.Start(context.Background(), Handlers{Stdout: stdout.handle})
	if _, ok := stderrors.AsType[*errors.SpawnError](err); ok {
		t.Skipf("pty unavailable: %v", err)
	}

	require.NoError(t, err)

	exit := waitExit(t, p)

	require.True(t, exit.Success())
	require.Contains(t, stdout.String(), "tty")
	require.NotContains(t, stdout.String(), "notty")
}

// TestExitStatus tests that only a signal death after a kill request counts
// as killed, so a failure exit that races a kill is still reported.
func TestExitStatus(t *testing.T) {
	skipOnWindows(t)

	failed := exec.Command("sh", "-c", "exit 3").Run()
	require.Error(t, failed)

	sleeper := exec.Command("sleep", "10")
	require.NoError(t, sleeper.Start())
	require.NoError(t, sleeper.Process.Kill())

	signaled := sleeper.Wait()
	require.Error(t, signaled)

	testCases := []struct {
		name          string
		waitErr       error
		killRequested bool
		wantCode      int
		wantKilled    bool
	}{
		{name: "clean exit", waitErr: nil, killRequested: false, wantCode: 0, wantKilled: false},
		{name: "clean exit after kill request", waitErr: nil, killRequested: true, wantCode: 0, wantKilled: false},
		{name: "failure exit", waitErr: failed, killRequested: false, wantCode: 3, wantKilled: false},
		{name: "failure exit after kill request", waitErr: failed, killRequested: true, wantCode: 3, wantKilled: false},
		{name: "signal after kill request", waitErr: signaled, killRequested: true, wantCode: -1, wantKilled: true},
		{name: "signal without kill request", waitErr: signaled, killRequested: false, wantCode: -1, wantKilled: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, killed := exitStatus(tc.waitErr, tc.killRequested)

			require.Equal(t, tc.wantCode, code)
			require.Equal(t, tc.wantKilled, killed)
		})
	}
}

func TestExit_Success(t *testing.T) {
	require.True(t, Exit{}.Success())
	require.False(t, Exit{Code: 1}.Success())
	require.False(t, Exit{Killed: true}.Success())
	require.False(t, Exit{Err: stderrors.New("read failed")}.Success())
}
