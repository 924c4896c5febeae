// Package cli turns a command string into an executable invocation.
//
// # Command Parsing
//
// A command string is split on whitespace into an executable and its
// arguments. There is no quoting support:
//
//	cmd, err := cli.Parse("npm init -y")
//
// # Executable Resolution
//
// When a base directory is configured, a relative executable is resolved
// against it. On Windows the invocation goes through the command shell
// (%COMSPEC% /c), elsewhere the executable runs directly:
//
//	inv, err := cli.Resolve(cmd, options)
//
// # Environment
//
// BuildEnvironment returns the caller's environment with the configured
// overrides appended, so overrides win on duplicate keys.
package cli
