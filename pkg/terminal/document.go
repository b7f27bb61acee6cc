// Package terminal implements the interactive clipboard document on top of
// a terminal. Selected text is placed on the user's clipboard with an OSC52
// escape sequence, which works across SSH and inside tmux or screen.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/Veraticus/clipkit/pkg/clipboard"
)

// Multiplexer selects how OSC52 sequences are wrapped.
type Multiplexer string

const (
	MultiplexerAuto   Multiplexer = "auto"
	MultiplexerNone   Multiplexer = "none"
	MultiplexerTmux   Multiplexer = "tmux"
	MultiplexerScreen Multiplexer = "screen"
)

// ParseMultiplexer validates a multiplexer name. The empty string is auto.
func ParseMultiplexer(s string) (Multiplexer, error) {
	switch m := Multiplexer(strings.ToLower(s)); m {
	case "":
		return MultiplexerAuto, nil
	case MultiplexerAuto, MultiplexerNone, MultiplexerTmux, MultiplexerScreen:
		return m, nil
	default:
		return "", fmt.Errorf("unknown terminal multiplexer %q", s)
	}
}

// Options configures a Document.
type Options struct {
	// Output receives escape sequences when Materialize gets no container.
	Output io.Writer
	// Multiplexer controls tmux/screen passthrough wrapping.
	Multiplexer Multiplexer
	// Limit caps the payload size in bytes; 0 means no limit.
	Limit int
	// Getenv reads the environment for multiplexer detection.
	Getenv func(string) string
}

// Document is a clipboard.Document whose "copy" command emits OSC52. It
// keeps a single current selection, like a real document.
type Document struct {
	opts Options

	mu        sync.Mutex
	selection *selection
}

var _ clipboard.Document = (*Document)(nil)

type selection struct {
	out  io.Writer
	text string
}

// New creates a document. A nil Output selects stderr.
func New(opts Options) *Document {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Multiplexer == "" {
		opts.Multiplexer = MultiplexerAuto
	}
	return &Document{opts: opts}
}

// Output returns the default output.
func (d *Document) Output() io.Writer {
	return d.opts.Output
}

// Materialize creates an offscreen scratch holding content. The container
// must be an io.Writer or nil; markup is rendered to its selectable text.
func (d *Document) Materialize(container any, content clipboard.Content) (clipboard.Scratch, error) {
	out := d.opts.Output
	if container != nil {
		w, ok := container.(io.Writer)
		if !ok {
			return nil, fmt.Errorf("container must be an io.Writer, got %T", container)
		}
		out = w
	}

	text := content.Text
	if content.HTML != "" {
		rendered, err := RenderText(content.HTML)
		if err != nil {
			return nil, fmt.Errorf("render markup: %w", err)
		}
		text = rendered
	}
	return &scratch{doc: d, sel: &selection{out: out, text: text}}, nil
}

// ExecCommand issues "copy" against the current selection. "cut" is never
// supported by a terminal and reports false.
func (d *Document) ExecCommand(action string) (bool, error) {
	if action != "copy" {
		return false, nil
	}

	d.mu.Lock()
	sel := d.selection
	d.mu.Unlock()
	if sel == nil {
		return false, nil
	}

	if d.opts.Limit > 0 && len(sel.text) > d.opts.Limit {
		return false, fmt.Errorf("selection of %d bytes exceeds terminal limit of %d", len(sel.text), d.opts.Limit)
	}
	if _, err := d.sequence(sel.text).WriteTo(sel.out); err != nil {
		return false, fmt.Errorf("write OSC52 sequence: %w", err)
	}
	return true, nil
}

// CommandSupported reports true for "copy" only.
func (d *Document) CommandSupported(action string) bool {
	return action == "copy"
}

// ClearSelection drops the current selection.
func (d *Document) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = nil
}

// Selected returns the currently selected text.
func (d *Document) Selected() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selection == nil {
		return "", false
	}
	return d.selection.text, true
}

func (d *Document) sequence(text string) osc52.Sequence {
	seq := osc52.New(text)
	switch d.multiplexer() {
	case MultiplexerTmux:
		seq = seq.Tmux()
	case MultiplexerScreen:
		seq = seq.Screen()
	}
	return seq
}

func (d *Document) multiplexer() Multiplexer {
	if d.opts.Multiplexer != MultiplexerAuto {
		return d.opts.Multiplexer
	}
	if d.opts.Getenv("TMUX") != "" {
		return MultiplexerTmux
	}
	if strings.HasPrefix(d.opts.Getenv("TERM"), "screen") {
		return MultiplexerScreen
	}
	return MultiplexerNone
}

func (d *Document) setSelection(sel *selection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selection = sel
}

type scratch struct {
	doc *Document
	sel *selection

	mu      sync.Mutex
	removed bool
}

var errRemoved = errors.New("scratch node already removed")

func (s *scratch) SelectAll() error {
	s.mu.Lock()
	removed := s.removed
	s.mu.Unlock()
	if removed {
		return errRemoved
	}
	s.doc.setSelection(s.sel)
	return nil
}

func (s *scratch) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = true
}
