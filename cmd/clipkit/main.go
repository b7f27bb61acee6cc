// Package main implements the clipkit CLI.
//
// # Overview
//
// clipkit copies, cuts and reads the clipboard from the command line in any
// environment it finds itself in. Every command goes through the same
// negotiation:
//
//   - the native OS clipboard when the process can reach it
//   - an OSC52 escape sequence when attached to a terminal, which also works
//     over SSH and inside tmux or screen
//   - the platform clipboard utilities (clip, pbcopy, xclip, xsel) otherwise
//
// Failed attempts fall through to the next mechanism, and the whole chain is
// retried with exponential backoff.
//
// # Configuration
//
// Settings come from flags, CLIPKIT_* environment variables and an optional
// config file at $XDG_CONFIG_HOME/clipkit/config.yaml, in that order of
// precedence.
//
// # Example Usage
//
//	# Copy an argument or stdin
//	clipkit copy "Hello, World!"
//	ls -la | clipkit copy
//
//	# Print the clipboard
//	clipkit paste > output.txt
//
//	# Copy an image from disk or the network
//	clipkit image screenshot.png
//	clipkit image https://example.com/logo.png
//
//	# Follow clipboard changes as JSON lines
//	clipkit watch
package main

import (
	"fmt"
	"os"
)

var (
	// Version information (set by build flags)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := newRootCmd(newApp(os.Stdin, os.Stdout, os.Stderr))
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
