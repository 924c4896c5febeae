// Package command implements the commando command-line interface.
package command

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wagiedev/commando/fsutil"
)

// ExitCodeError carries the exit code of a driven subprocess that did not
// succeed, so main can mirror it.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("subprocess exited with code %d", e.Code)
}

// NewRootCommand creates the root command
func NewRootCommand(fs *fsutil.FS) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "commando",
		Short: "Drive interactive command-line programs from scripts",
		Long: `A tool for automating interactive command-line programs.

Scripts list prompts to wait for and the answers to type, so installers,
scaffolders and other prompt-driven tools can run unattended in tests.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	logger := func(w io.Writer) *slog.Logger {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}

	// Add subcommands
	rootCmd.AddCommand(NewRunCommand(fs, logger))
	rootCmd.AddCommand(NewJSONCommand(fs))

	return rootCmd
}
