package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPasteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paste",
		Short: "Paste clipboard contents",
		Long: `Output the current clipboard contents.

Examples:
  # Paste to stdout
  clipkit paste

  # Paste to file
  clipkit paste > output.txt

  # Paste and process
  clipkit paste | grep "pattern"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := a.client.Read(cmd.Context())
			if err != nil {
				return err
			}

			// No newline added, the content is preserved exactly
			if _, err := fmt.Fprint(a.stdout, content); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}
