package osclip

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
	"github.com/Veraticus/clipkit/pkg/logging"
)

// Adapter reads and writes the clipboard through external utilities. Each
// call spawns its own process; concurrent writes are not serialized and the
// last process to finish wins.
type Adapter struct {
	goos        string
	platform    Platform
	runner      Runner
	maxReadSize int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(a *Adapter) {
		a.runner = r
	}
}

// WithGOOS selects the dispatch row for another operating system.
func WithGOOS(goos string) Option {
	return func(a *Adapter) {
		a.goos = goos
	}
}

// WithMaxReadSize caps read output. Non-positive values keep the default.
func WithMaxReadSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxReadSize = n
		}
	}
}

// New creates an adapter for the running operating system.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		goos:        runtime.GOOS,
		runner:      ExecRunner{},
		maxReadSize: MaxClipboardSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.platform = PlatformFor(a.goos)
	return a
}

// Platform returns the dispatch row in use.
func (a *Adapter) Platform() Platform {
	return a.platform
}

// Available reports whether any of the platform's utilities is installed.
func (a *Adapter) Available() bool {
	for _, name := range a.platform.utilities() {
		if _, err := a.runner.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// Write places text on the clipboard and returns it unchanged.
func (a *Adapter) Write(ctx context.Context, text string) (string, error) {
	log := logging.FromContext(ctx)

	err := a.write(ctx, a.platform.Write, text)
	if err == nil {
		return text, nil
	}
	if !errors.Is(err, cliperr.ErrSpawnFailure) || a.platform.FallbackWrite == nil {
		return "", err
	}

	log.Debug().
		Err(err).
		Str("fallback", a.platform.FallbackWrite.String()).
		Msg("primary clipboard utility unavailable")

	err = a.write(ctx, *a.platform.FallbackWrite, text)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, cliperr.ErrSpawnFailure) {
		return "", a.noUtility(err)
	}
	return "", err
}

// Read returns the clipboard contents.
func (a *Adapter) Read(ctx context.Context) (string, error) {
	log := logging.FromContext(ctx)

	out, err := a.read(ctx, a.platform.Read)
	if err != nil && errors.Is(err, cliperr.ErrSpawnFailure) && a.platform.FallbackRead != nil {
		log.Debug().
			Err(err).
			Str("fallback", a.platform.FallbackRead.String()).
			Msg("primary clipboard utility unavailable")

		out, err = a.read(ctx, *a.platform.FallbackRead)
		if err != nil && errors.Is(err, cliperr.ErrSpawnFailure) {
			return "", a.noUtility(err)
		}
	}
	if err != nil {
		return "", err
	}

	if a.platform.StripTrailingNewline {
		out = stripLineTerminator(out)
	}
	return out, nil
}

func (a *Adapter) write(ctx context.Context, cmd Command, text string) error {
	proc, err := a.runner.Start(ctx, cmd, strings.NewReader(text), nil)
	if err != nil {
		return cliperr.Spawn(fmt.Sprintf("failed to start %s", cmd.Name), err)
	}

	code, err := proc.Wait()
	if err != nil {
		return cliperr.Mechanism("os-process", cmd.Name+" failed", err)
	}
	if code != 0 {
		return cliperr.ExitCode(cmd.Name, code)
	}

	logging.FromContext(ctx).Debug().
		Str("command", cmd.String()).
		Int("bytes", len(text)).
		Msg("clipboard written")
	return nil
}

func (a *Adapter) read(ctx context.Context, cmd Command) (string, error) {
	out := &cappedBuffer{limit: a.maxReadSize}

	proc, err := a.runner.Start(ctx, cmd, nil, out)
	if err != nil {
		return "", cliperr.Spawn(fmt.Sprintf("failed to start %s", cmd.Name), err)
	}

	code, err := proc.Wait()
	if err != nil {
		return "", cliperr.Mechanism("os-process", cmd.Name+" failed", err)
	}
	if code != 0 {
		return "", cliperr.ExitCode(cmd.Name, code)
	}
	if out.overflow {
		return "", cliperr.Mechanism("os-process",
			fmt.Sprintf("%s output exceeds %d bytes", cmd.Name, a.maxReadSize), ErrContentTooLarge)
	}

	logging.FromContext(ctx).Debug().
		Str("command", cmd.String()).
		Int("bytes", len(out.buf)).
		Msg("clipboard read")
	return out.String(), nil
}

func (a *Adapter) noUtility(cause error) error {
	names := []string{a.platform.Write.Name}
	if a.platform.FallbackWrite != nil {
		names = append(names, a.platform.FallbackWrite.Name)
	}
	return cliperr.Spawn(
		fmt.Sprintf("no clipboard utility available (tried %s)", strings.Join(names, ", ")),
		cause,
	)
}

func stripLineTerminator(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}
