package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Veraticus/clipkit/pkg/binding"
	"github.com/Veraticus/clipkit/pkg/clipboard"
	"github.com/Veraticus/clipkit/pkg/element"
	"github.com/Veraticus/clipkit/pkg/logging"
)

// bindResult is printed for every trigger read by the bind command.
type bindResult struct {
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newBindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bind",
		Short: "Run clipboard triggers read from stdin",
		Long: `Read one JSON object of data-clipboard-* attributes per line from stdin
and perform the clipboard operation each describes. A result line is printed
to stdout for every trigger.

Targets are file paths; cutting a target truncates the file.

Examples:
  echo '{"data-clipboard-text":"hello"}' | clipkit bind
  echo '{"data-clipboard-action":"cut","data-clipboard-target":"notes.txt"}' | clipkit bind`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var mu sync.Mutex
			encoder := json.NewEncoder(a.stdout)
			report := func(ev binding.Event) {
				res := bindResult{Action: ev.Action, OK: ev.Err == nil, Text: ev.Text}
				if ev.Err != nil {
					res.Error = ev.Err.Error()
				}
				mu.Lock()
				defer mu.Unlock()
				_ = encoder.Encode(res)
			}

			cfg := binding.NewConfig(
				binding.WithFinder(binding.FinderFunc(func(path string) (clipboard.Element, error) {
					return element.NewFile(path, a.cfg.Read.MaxSize), nil
				})),
				binding.OnSuccess(report),
				binding.OnFailure(report),
			)

			triggers := make(chan binding.Trigger)
			b, err := binding.Bind(ctx, binding.ChanSource(triggers), a.client, cfg)
			if err != nil {
				return err
			}
			defer b.Destroy()

			readErr := readTriggers(ctx, a.stdin, triggers)
			<-b.Done()
			if readErr != nil {
				return readErr
			}
			return b.Err()
		},
	}
}

// readTriggers decodes one attribute object per line into out and closes it
// at end of input. Malformed lines are logged and skipped.
func readTriggers(ctx context.Context, r io.Reader, out chan<- binding.Trigger) error {
	defer close(out)
	log := logging.FromContext(ctx)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var attrs binding.Attrs
		if err := json.Unmarshal(scanner.Bytes(), &attrs); err != nil {
			log.Warn().Err(err).Int("line", line).Msg("skipping malformed trigger")
			continue
		}
		select {
		case out <- attrs:
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read triggers: %w", err)
	}
	return nil
}
