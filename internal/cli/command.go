package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/wagiedev/commando/internal/config"
	"github.com/wagiedev/commando/internal/errors"
)

// defaultShell is used on Windows when COMSPEC is unset.
const defaultShell = "cmd.exe"

// Command is a parsed command string.
type Command struct {
	// Name is the executable as written in the command string.
	Name string

	// Args are the remaining whitespace-separated fields.
	Args []string
}

// Invocation is what gets handed to os/exec.
type Invocation struct {
	// Path is the program to run.
	Path string

	// Args are the arguments passed to Path.
	Args []string

	// Dir is the working directory.
	Dir string

	// Env is the complete environment in KEY=VALUE form.
	Env []string
}

// Parse splits a command string on whitespace.
// Returns ErrEmptyCommand if the string holds no fields.
func Parse(command string) (*Command, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.ErrEmptyCommand
	}

	return &Command{Name: fields[0], Args: fields[1:]}, nil
}

// String joins the command back into a single line.
func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Resolve builds the invocation for cmd under the given options.
func Resolve(cmd *Command, options *config.Options) (*Invocation, error) {
	return resolveFor(runtime.GOOS, cmd, options)
}

func resolveFor(goos string, cmd *Command, options *config.Options) (*Invocation, error) {
	dir := options.WorkingDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}

		dir = wd
	}

	exe, err := ResolveExecutable(cmd.Name, options.CmdPath)
	if err != nil {
		return nil, err
	}

	inv := &Invocation{
		Path: exe,
		Args: slices.Clone(cmd.Args),
		Dir:  dir,
		Env:  BuildEnvironment(options),
	}

	if goos == "windows" {
		shell := os.Getenv("COMSPEC")
		if shell == "" {
			shell = defaultShell
		}

		inv.Args = append([]string{"/c", exe}, cmd.Args...)
		inv.Path = shell
	}

	return inv, nil
}

// ResolveExecutable resolves name against base.
//
// An empty base leaves name untouched so os/exec can search PATH.
// An absolute name is kept as is. Otherwise the result is the absolute
// path of base joined with name.
func ResolveExecutable(name, base string) (string, error) {
	if base == "" || filepath.IsAbs(name) {
		return name, nil
	}

	resolved, err := filepath.Abs(filepath.Join(base, name))
	if err != nil {
		return "", fmt.Errorf("resolve executable %s: %w", name, err)
	}

	return resolved, nil
}

// BuildEnvironment returns the current environment with options.Env appended.
// Keys are appended in sorted order so the result is deterministic.
func BuildEnvironment(options *config.Options) []string {
	env := os.Environ()

	keys := make([]string, 0, len(options.Env))
	for key := range options.Env {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		env = append(env, fmt.Sprintf("%s=%s", key, options.Env[key]))
	}

	return env
}
