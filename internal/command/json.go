package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagiedev/commando/fsutil"
)

// NewJSONCommand creates the json command and its subcommands
func NewJSONCommand(fs *fsutil.FS) *cobra.Command {
	jsonCmd := &cobra.Command{
		Use:   "json",
		Short: "Read and merge JSON files",
	}

	jsonCmd.AddCommand(&cobra.Command{
		Use:   "get <file> [key]",
		Short: "Print a JSON file, or one of its top-level keys",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc map[string]any
			if err := fs.ReadJSON(args[0], &doc); err != nil {
				return err
			}

			var out any = doc

			if len(args) == 2 {
				value, ok := doc[args[1]]
				if !ok {
					return fmt.Errorf("key %q not found in %s", args[1], args[0])
				}

				out = value
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("encode output: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			return nil
		},
	})

	jsonCmd.AddCommand(&cobra.Command{
		Use:   "merge <file> <object>",
		Short: "Merge a JSON object into a file's top-level keys",
		Example: `  # Set two keys, keeping the rest of the file
  commando json merge package.json '{"private": true, "version": "1.0.0"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content map[string]any
			if err := json.Unmarshal([]byte(args[1]), &content); err != nil {
				return fmt.Errorf("parse object: %w", err)
			}

			if content == nil {
				return fmt.Errorf("parse object: %w", fsutil.ErrNotJSONObject)
			}

			return fs.WriteJSON(args[0], content)
		},
	})

	return jsonCmd
}
