// Package environment assembles the default clipboard.Environment for a
// process: the native OS clipboard as the in-process tier, an OSC52 terminal
// document when attached to a terminal, and clipboard utilities otherwise.
//
// Every method probes again when called, so mechanisms that appear or
// disappear while the process runs (a utility installed, a display
// connected) are picked up by the next operation.
package environment

import (
	"io"
	"os"
	"runtime"

	"github.com/Veraticus/clipkit/pkg/clipboard"
	"github.com/Veraticus/clipkit/pkg/config"
	"github.com/Veraticus/clipkit/pkg/element"
	"github.com/Veraticus/clipkit/pkg/native"
	"github.com/Veraticus/clipkit/pkg/osclip"
	"github.com/Veraticus/clipkit/pkg/terminal"
)

// NativeClipboard is the in-process tier. native.Backend implements it.
type NativeClipboard interface {
	clipboard.AsyncAPI
	clipboard.ItemWriter
	clipboard.PermissionQuerier
	Available() bool
}

// Utilities is the headless tier. osclip.Adapter implements it.
type Utilities interface {
	clipboard.ProcessAdapter
	Available() bool
}

// Options configures New. Zero values select the system defaults.
type Options struct {
	Mode config.Mode

	// Output is the terminal receiving OSC52 sequences. Defaults to stderr.
	Output      io.Writer
	Multiplexer terminal.Multiplexer
	Limit       int

	// Native is the in-process clipboard. Defaults to native.New().
	Native NativeClipboard
	// DisableNative removes the in-process tier entirely.
	DisableNative bool
	// Utilities is the OS process adapter. Defaults to osclip.New().
	Utilities   Utilities
	MaxReadSize int

	// GOOS overrides runtime.GOOS.
	GOOS string
	// IsTerminal overrides terminal detection of Output.
	IsTerminal func(io.Writer) bool
}

// FromConfig maps a loaded configuration onto Options.
func FromConfig(cfg *config.Config) Options {
	mux, _ := terminal.ParseMultiplexer(cfg.Terminal.Multiplexer)
	return Options{
		Mode:        cfg.Mode,
		Multiplexer: mux,
		Limit:       cfg.Terminal.Limit,
		MaxReadSize: int(cfg.Read.MaxSize),
	}
}

// Environment is the probing clipboard.Environment.
type Environment struct {
	opts Options

	doc *terminal.Document
	sel *terminal.SelectionEngine
}

var _ clipboard.Environment = (*Environment)(nil)

// New creates an environment.
func New(opts Options) *Environment {
	if opts.Mode == "" {
		opts.Mode = config.ModeAuto
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = terminal.IsTerminal
	}
	if opts.Native == nil && !opts.DisableNative {
		opts.Native = native.New()
	}
	if opts.Utilities == nil {
		opts.Utilities = osclip.New(
			osclip.WithGOOS(opts.GOOS),
			osclip.WithMaxReadSize(opts.MaxReadSize),
		)
	}

	doc := terminal.New(terminal.Options{
		Output:      opts.Output,
		Multiplexer: opts.Multiplexer,
		Limit:       opts.Limit,
	})
	return &Environment{
		opts: opts,
		doc:  doc,
		sel:  terminal.NewSelectionEngine(doc),
	}
}

// Context classifies the process. Sandboxed targets without a terminal or
// processes are ContextNone; otherwise the configured mode decides, and
// auto picks interactive when Output is a terminal.
func (e *Environment) Context() clipboard.ExecContext {
	switch e.opts.GOOS {
	case "js", "wasip1":
		return clipboard.ContextNone
	}
	switch e.opts.Mode {
	case config.ModeInteractive:
		return clipboard.ContextInteractive
	case config.ModeHeadless:
		return clipboard.ContextHeadless
	}
	if e.opts.IsTerminal(e.opts.Output) {
		return clipboard.ContextInteractive
	}
	return clipboard.ContextHeadless
}

func (e *Environment) nativeReady() bool {
	return !e.opts.DisableNative && e.opts.Native != nil && e.opts.Native.Available()
}

// AsyncAPI returns the native clipboard when it initialized.
func (e *Environment) AsyncAPI() clipboard.AsyncAPI {
	if !e.nativeReady() {
		return nil
	}
	return e.opts.Native
}

// ItemWriter returns the native clipboard when it initialized.
func (e *Environment) ItemWriter() clipboard.ItemWriter {
	if !e.nativeReady() {
		return nil
	}
	return e.opts.Native
}

// Document returns the terminal document in interactive context.
func (e *Environment) Document() clipboard.Document {
	if e.Context() != clipboard.ContextInteractive {
		return nil
	}
	return e.doc
}

// Selection returns the terminal selection engine in interactive context
// and a direct text selector otherwise.
func (e *Environment) Selection() clipboard.SelectionEngine {
	switch e.Context() {
	case clipboard.ContextInteractive:
		return e.sel
	case clipboard.ContextHeadless:
		return element.Selector{}
	default:
		return nil
	}
}

// Process returns the utility adapter in headless context when at least one
// utility is installed.
func (e *Environment) Process() clipboard.ProcessAdapter {
	if e.Context() != clipboard.ContextHeadless || !e.opts.Utilities.Available() {
		return nil
	}
	return e.opts.Utilities
}

// Permissions returns the native clipboard when it initialized.
func (e *Environment) Permissions() clipboard.PermissionQuerier {
	if !e.nativeReady() {
		return nil
	}
	return e.opts.Native
}

// Native returns the in-process clipboard, or nil when it is disabled or
// failed to initialize. It doubles as a paste source.
func (e *Environment) Native() NativeClipboard {
	if !e.nativeReady() {
		return nil
	}
	return e.opts.Native
}

// Terminal returns the OSC52 document regardless of context.
func (e *Environment) Terminal() *terminal.Document {
	return e.doc
}
