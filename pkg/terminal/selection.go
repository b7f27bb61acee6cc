package terminal

import (
	"fmt"

	"github.com/Veraticus/clipkit/pkg/clipboard"
)

// Texter is an element whose current text can be read.
type Texter interface {
	Text() (string, error)
}

// SelectionEngine selects live elements in a Document. Only elements that
// implement Texter can be selected.
type SelectionEngine struct {
	doc *Document
}

var _ clipboard.SelectionEngine = (*SelectionEngine)(nil)

// NewSelectionEngine creates an engine selecting into doc.
func NewSelectionEngine(doc *Document) *SelectionEngine {
	return &SelectionEngine{doc: doc}
}

// Select makes the element's text the document selection and returns it.
func (e *SelectionEngine) Select(el clipboard.Element) (string, error) {
	t, ok := el.(Texter)
	if !ok {
		return "", fmt.Errorf("element %T has no readable text", el)
	}
	text, err := t.Text()
	if err != nil {
		return "", err
	}
	if el.Kind() == clipboard.KindRichEditable {
		if rendered, err := RenderText(text); err == nil {
			text = rendered
		}
	}
	e.doc.setSelection(&selection{out: e.doc.opts.Output, text: text})
	return text, nil
}
