package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/clipkit/pkg/clipboard"
	"github.com/Veraticus/clipkit/pkg/logging"
	"github.com/Veraticus/clipkit/pkg/terminal"
)

func newImageCmd(a *app) *cobra.Command {
	var mimeType string

	cmd := &cobra.Command{
		Use:   "image <path|url>",
		Short: "Copy an image to the clipboard",
		Long: `Copy an image file or an image URL to the clipboard.

The MIME type is detected from the content unless --type is given. URLs are
fetched once, before any clipboard mechanism is attempted.

Examples:
  # Copy a screenshot
  clipkit image screenshot.png

  # Copy an image from the web
  clipkit image https://example.com/logo.png

  # Force the MIME type
  clipkit image --type image/png raw.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var src any = args[0]
			if !isURL(args[0]) {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open image: %w", err)
				}
				defer func() { _ = f.Close() }()
				src = f
			}

			blob, err := a.client.CopyImage(ctx, src, clipboard.WithMIME(mimeType))
			if err != nil {
				return err
			}
			logging.FromContext(ctx).Info().
				Str("type", blob.Type).
				Int("size", len(blob.Data)).
				Msg("image copied")
			return nil
		},
	}
	cmd.Flags().StringVar(&mimeType, "type", "", "MIME type of the image (detected when empty)")
	return cmd
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func newRichCmd(a *app) *cobra.Command {
	var html, text string

	cmd := &cobra.Command{
		Use:   "rich",
		Short: "Copy HTML together with its plain-text rendition",
		Long: `Copy an HTML fragment and a plain-text alternative as one clipboard item.

When --text is omitted the plain text is rendered from the markup.

Examples:
  # Copy a link that pastes as a link in rich editors
  clipkit rich --html '<a href="https://example.com">example</a>'

  # Provide the plain text explicitly
  clipkit rich --html '<b>bold</b>' --text '*bold*'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if html == "" {
				return fmt.Errorf("--html is required")
			}
			if !cmd.Flags().Changed("text") {
				rendered, err := terminal.RenderText(html)
				if err != nil {
					return fmt.Errorf("failed to render markup: %w", err)
				}
				text = rendered
			}

			_, err := a.client.CopyRich(cmd.Context(), clipboard.RichText{Text: text, HTML: html})
			return err
		},
	}
	cmd.Flags().StringVar(&html, "html", "", "HTML fragment to copy")
	cmd.Flags().StringVar(&text, "text", "", "Plain-text alternative (rendered from --html when omitted)")
	return cmd
}
