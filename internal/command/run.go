package command

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagiedev/commando"
	"github.com/wagiedev/commando/fsutil"
	"github.com/wagiedev/commando/internal/script"
)

// RunCommand handles the run command
type RunCommand struct {
	fs     *fsutil.FS
	logger func(io.Writer) *slog.Logger

	silent bool
	record string
}

// NewRunCommand creates the run command
func NewRunCommand(fs *fsutil.FS, logger func(io.Writer) *slog.Logger) *cobra.Command {
	cmd := &RunCommand{
		fs:     fs,
		logger: logger,
	}

	cobraCmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a command and answer its prompts from a script",
		Long: `Runs the command described by a YAML script and answers its output.

Every chunk of output is checked against the script's rules in order. The
first matching rule fires: it types its response, or ends the session when
marked with end. Rules fire once unless marked with many.

Folders listed under dirs are created before the command starts. The exit
code of the command becomes the exit code of commando.`,
		Example: `  # Run a scripted session
  commando run init.yaml

  # Record the outcome in a JSON file keyed by session id
  commando run init.yaml --record results.json`,
		Args: cobra.ExactArgs(1),
		RunE: cmd.Run,
	}

	cobraCmd.Flags().BoolVar(&cmd.silent, "silent", false, "Do not echo the command's output (overrides the script)")
	cobraCmd.Flags().StringVar(&cmd.record, "record", "", "Merge a summary of the session into this JSON file")

	return cobraCmd
}

// Run executes the run command
func (c *RunCommand) Run(cmd *cobra.Command, args []string) error {
	s, err := script.Load(c.fs.Fs(), args[0])
	if err != nil {
		return err
	}

	if err := c.fs.EnsureFolder(s.Folders()...); err != nil {
		return err
	}

	opts := []commando.Option{commando.WithLogger(c.logger(cmd.ErrOrStderr()))}
	if cmd.Flags().Changed("silent") {
		opts = append(opts, commando.WithSilent(c.silent))
	}

	d, err := s.NewDriver(opts...)
	if err != nil {
		return err
	}

	d.OnError(func(text string) {
		fmt.Fprint(cmd.ErrOrStderr(), text)
	})

	started := time.Now()

	exit, err := d.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run %s: %w", s.Command, err)
	}

	if c.record != "" {
		if err := c.fs.WriteJSON(c.record, map[string]any{d.ID(): summarize(s, exit, started)}); err != nil {
			return fmt.Errorf("record session: %w", err)
		}
	}

	if err := cmd.Context().Err(); err != nil {
		return err
	}

	if exit.Err != nil && exit.Code <= 0 {
		return exit.Err
	}

	if exit.Code != 0 && !exit.Killed {
		return &ExitCodeError{Code: exit.Code}
	}

	return nil
}

func summarize(s *script.Script, exit commando.Exit, started time.Time) map[string]any {
	summary := map[string]any{
		"command":     s.Command,
		"exit_code":   exit.Code,
		"killed":      exit.Killed,
		"success":     exit.Success(),
		"started_at":  started.UTC().Format(time.RFC3339),
		"duration_ms": time.Since(started).Milliseconds(),
	}

	if exit.Err != nil {
		summary["error"] = exit.Err.Error()
	}

	return summary
}
