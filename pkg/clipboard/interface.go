// Package clipboard unifies text, image and rich-text copy, cut and read
// across environments that expose different clipboard mechanisms.
//
// # Tiers
//
// Every operation is resolved at call time against an Environment, which
// reports the mechanisms currently reachable:
//
//   - an in-process asynchronous API (AsyncAPI) and its typed-item variant
//     (ItemWriter);
//   - an interactive Document supporting legacy selection-based commands
//     ("copy", "cut") on offscreen scratch nodes or live elements;
//   - an OS process adapter (ProcessAdapter) for headless processes.
//
// The Client tries the applicable tiers in order and falls through on
// failure. The whole chain runs under a retry.Controller, so a call is
// retried with exponential backoff and optionally bounded by a timeout.
//
// Nothing is cached: capabilities are probed again on every attempt.
package clipboard

import "context"

// AsyncAPI is the in-process asynchronous clipboard.
type AsyncAPI interface {
	WriteText(ctx context.Context, text string) error
	ReadText(ctx context.Context) (string, error)
}

// ItemWriter writes typed clipboard items.
type ItemWriter interface {
	WriteItem(ctx context.Context, item Item) error
}

// Content is what gets materialized into a scratch node. When HTML is set
// the node is a markup container and Text is ignored.
type Content struct {
	Text string
	HTML string
}

// Document is an interactive document with legacy selection-based commands.
type Document interface {
	// Materialize creates an offscreen, non-visible, read-only node holding
	// content inside container (nil selects the document default).
	Materialize(container any, content Content) (Scratch, error)

	// ExecCommand runs a legacy command such as "copy" or "cut" against the
	// current selection. It reports whether the command succeeded.
	ExecCommand(action string) (bool, error)

	// CommandSupported reports whether action can be issued at all.
	CommandSupported(action string) bool

	// ClearSelection drops any visible selection.
	ClearSelection()
}

// Scratch is a node created by Document.Materialize.
type Scratch interface {
	// SelectAll selects the rendered content of the node.
	SelectAll() error
	// Remove detaches the node. Calling it twice is harmless.
	Remove()
}

// ElementKind classifies live elements for cut emulation.
type ElementKind int

const (
	KindOther ElementKind = iota
	// KindInput is a single-line input; it is cleared by resetting its value.
	KindInput
	// KindTextArea is a multi-line input; it is cleared by resetting its value.
	KindTextArea
	// KindRichEditable is editable markup; it is cleared by resetting its content.
	KindRichEditable
)

func (k ElementKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTextArea:
		return "textarea"
	case KindRichEditable:
		return "rich-editable"
	default:
		return "other"
	}
}

// Element is a live element in the host document.
type Element interface {
	Kind() ElementKind
	ReadOnly() bool
	Disabled() bool
	SetValue(value string) error
	SetContent(content string) error
}

// SelectionEngine selects the content of a live element and returns the
// selected text.
type SelectionEngine interface {
	Select(el Element) (string, error)
}

// ProcessAdapter reaches the clipboard through external utilities.
type ProcessAdapter interface {
	Write(ctx context.Context, text string) (string, error)
	Read(ctx context.Context) (string, error)
}

// PermissionQuerier is the host permission subsystem.
type PermissionQuerier interface {
	Query(ctx context.Context, kind PermissionKind) (PermissionState, error)
}

// Environment reports the mechanisms reachable right now. Implementations
// must return nil for absent mechanisms and may change answers between calls.
type Environment interface {
	Context() ExecContext
	AsyncAPI() AsyncAPI
	ItemWriter() ItemWriter
	Document() Document
	Selection() SelectionEngine
	Process() ProcessAdapter
	Permissions() PermissionQuerier
}

// StaticEnvironment is an Environment with fixed answers, for tests and for
// callers that assemble mechanisms by hand.
type StaticEnvironment struct {
	Ctx   ExecContext
	API   AsyncAPI
	Items ItemWriter
	Doc   Document
	Sel   SelectionEngine
	Proc  ProcessAdapter
	Perms PermissionQuerier
}

func (e *StaticEnvironment) Context() ExecContext           { return e.Ctx }
func (e *StaticEnvironment) AsyncAPI() AsyncAPI             { return e.API }
func (e *StaticEnvironment) ItemWriter() ItemWriter         { return e.Items }
func (e *StaticEnvironment) Document() Document             { return e.Doc }
func (e *StaticEnvironment) Selection() SelectionEngine     { return e.Sel }
func (e *StaticEnvironment) Process() ProcessAdapter        { return e.Proc }
func (e *StaticEnvironment) Permissions() PermissionQuerier { return e.Perms }
