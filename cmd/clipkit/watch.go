package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/clipkit/pkg/logging"
	"github.com/Veraticus/clipkit/pkg/paste"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		poll  bool
		count int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print clipboard changes as JSON lines",
		Long: `Watch the clipboard and print one JSON object per change.

Change notifications from the native clipboard are used when available.
Otherwise, or with --poll, the clipboard is read periodically and a change is
reported when its content differs from the previous read.

Examples:
  # Stream changes until interrupted
  clipkit watch

  # Wait for the next copy and exit
  clipkit watch --count 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			// Some native backends report one copy more than once
			src := paste.Dedupe(a.pasteSource(poll), time.Second, 0)
			encoder := json.NewEncoder(a.stdout)
			log := logging.FromContext(ctx)

			seen := 0
			var writeErr error
			h, err := paste.Listen(ctx, src, func(obs paste.Observation) {
				log.Debug().Str("content", paste.Describe(obs)).Msg("clipboard changed")
				if err := encoder.Encode(obs); err != nil {
					writeErr = err
					cancel()
					return
				}
				seen++
				if count > 0 && seen >= count {
					cancel()
				}
			}, paste.WithMetrics(a.metrics))
			if err != nil {
				return err
			}
			defer h.Destroy()

			<-h.Done()
			if writeErr != nil {
				return writeErr
			}
			return h.Err()
		},
	}
	cmd.Flags().BoolVar(&poll, "poll", false, "Poll the clipboard instead of using change notifications")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many changes (0 for no limit)")
	return cmd
}

// pasteSource prefers the environment's change notifications and falls back
// to polling reads through the client.
func (a *app) pasteSource(poll bool) paste.Source {
	if !poll {
		if src, ok := a.env.AsyncAPI().(paste.Source); ok {
			return src
		}
	}
	return paste.NewWatchSource(
		func(ctx context.Context) (string, error) {
			return a.client.Read(ctx)
		},
		paste.WithInterval(a.cfg.Watch.Interval),
		paste.WithIdleInterval(a.cfg.Watch.IdleInterval),
	)
}
