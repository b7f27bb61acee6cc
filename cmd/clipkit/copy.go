package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/clipkit/pkg/element"
)

func newCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy [text]",
		Short: "Copy text to the clipboard",
		Long: `Copy text to the clipboard.

If text is provided as an argument, it will be copied directly.
If no argument is provided, text will be read from stdin.

Examples:
  # Copy text directly
  clipkit copy "Hello, World!"

  # Copy from stdin
  echo "Hello, World!" | clipkit copy

  # Copy command output
  ls -la | clipkit copy`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			if len(args) > 0 {
				content = args[0]
			} else {
				data, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("failed to read from stdin: %w", err)
				}
				content = string(data)
				if content == "" {
					return errors.New("no content to copy")
				}
			}

			// Success is silent
			_, err := a.client.Copy(cmd.Context(), content)
			return err
		},
	}
}

func newCutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cut <file>",
		Short: "Move the contents of a file to the clipboard",
		Long: `Copy the contents of a file to the clipboard and truncate the file.

The file must exist and be writable. Nothing is truncated when the copy fails.

Examples:
  # Move a scratch note to the clipboard
  clipkit cut notes.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := element.NewFile(args[0], a.cfg.Read.MaxSize)
			_, err := a.client.Cut(cmd.Context(), file)
			return err
		},
	}
}
