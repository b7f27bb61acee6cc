package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Long:        `Display version information about clipkit.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(*cobra.Command, []string) {
			_, _ = fmt.Fprintf(a.stdout, "clipkit version %s\n", version)
			_, _ = fmt.Fprintf(a.stdout, "  commit: %s\n", commit)
			_, _ = fmt.Fprintf(a.stdout, "  built:  %s\n", date)
		},
	}
}
