package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/clipkit/pkg/clipboard"
)

func newPermissionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "permission <read|write>",
		Short: "Query clipboard permission",
		Long: `Report whether clipboard access of the given kind is granted, denied or
would prompt. The answer is advisory.

Examples:
  clipkit permission read`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.client.QueryPermission(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, status.State)
			return err
		},
	}
}

type capabilitiesOutput struct {
	Context    string   `json:"context"`
	Mechanisms []string `json:"mechanisms"`
}

func newCapabilitiesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Show the clipboard mechanisms available right now",
		Long: `Display the execution context and the clipboard mechanisms clipkit can
use in the current environment, in the order they are tried.

Examples:
  # Human-readable
  clipkit capabilities

  # As JSON
  clipkit capabilities --json`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			caps := a.client.Capabilities()
			out := capabilitiesOutput{Context: caps.Context.String(), Mechanisms: []string{}}
			for _, m := range caps.Mechanisms.List() {
				out.Mechanisms = append(out.Mechanisms, m.String())
			}

			if asJSON {
				encoder := json.NewEncoder(a.stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(out); err != nil {
					return fmt.Errorf("failed to encode capabilities: %w", err)
				}
				return nil
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			_, _ = fmt.Fprintf(w, "Context:\t%s\n", out.Context)
			_, _ = fmt.Fprintf(w, "Mechanisms:\t%s\n", caps.Mechanisms)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output capabilities as JSON")
	return cmd
}

// printStats prints a metrics snapshot in a human-readable format.
func printStats(out io.Writer, m clipboard.MetricsSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintf(w, "Operations:\n")
	for _, op := range sortedKeys(m.Operations) {
		s := m.Operations[op]
		_, _ = fmt.Fprintf(w, "  %s:\t%d calls\t%d errors\t%s avg\t%d bytes\n",
			op, s.Count, s.ErrorCount, s.AvgTime.Round(time.Microsecond), s.TotalBytes)
	}

	if len(m.Mechanisms) > 0 {
		_, _ = fmt.Fprintf(w, "\nMechanisms:\n")
		for _, mech := range sortedKeys(m.Mechanisms) {
			s := m.Mechanisms[mech]
			_, _ = fmt.Fprintf(w, "  %s:\t%d attempts\t%d failures\n", mech, s.Attempts, s.Failures)
		}
	}

	if len(m.Fallbacks) > 0 {
		_, _ = fmt.Fprintf(w, "\nFallbacks:\n")
		for _, k := range sortedKeys(m.Fallbacks) {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", k, m.Fallbacks[k])
		}
	}

	if len(m.Errors) > 0 {
		_, _ = fmt.Fprintf(w, "\nErrors:\n")
		for _, k := range sortedKeys(m.Errors) {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", k, m.Errors[k])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
