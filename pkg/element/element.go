// Package element provides live elements for the clipboard client outside a
// browser-like host: an in-memory field and a file on disk.
package element

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Veraticus/clipkit/pkg/clipboard"
)

// Field is an in-memory editable element.
type Field struct {
	mu       sync.RWMutex
	kind     clipboard.ElementKind
	value    string
	readOnly bool
	disabled bool
}

var _ clipboard.Element = (*Field)(nil)

// FieldOption configures a Field.
type FieldOption func(*Field)

// ReadOnly marks the field read-only.
func ReadOnly() FieldOption {
	return func(f *Field) { f.readOnly = true }
}

// Disabled marks the field disabled.
func Disabled() FieldOption {
	return func(f *Field) { f.disabled = true }
}

// NewField creates a field of the given kind holding value.
func NewField(kind clipboard.ElementKind, value string, opts ...FieldOption) *Field {
	f := &Field{kind: kind, value: value}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Field) Kind() clipboard.ElementKind { return f.kind }

func (f *Field) ReadOnly() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.readOnly
}

func (f *Field) Disabled() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.disabled
}

// Text returns the current value.
func (f *Field) Text() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value, nil
}

// SetValue replaces the value of input-like fields.
func (f *Field) SetValue(v string) error {
	if f.kind == clipboard.KindRichEditable {
		return errors.New("rich editable fields have content, not a value")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	return nil
}

// SetContent replaces the content of rich editable fields.
func (f *Field) SetContent(c string) error {
	if f.kind != clipboard.KindRichEditable {
		return errors.New("only rich editable fields have content")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = c
	return nil
}

// File is a text file treated as a multi-line input. It is read-only when
// the file cannot be opened for writing.
type File struct {
	path    string
	maxSize int64
}

var _ clipboard.Element = (*File)(nil)

// NewFile creates a file element. maxSize <= 0 disables the size check.
func NewFile(path string, maxSize int64) *File {
	return &File{path: path, maxSize: maxSize}
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

func (f *File) Kind() clipboard.ElementKind { return clipboard.KindTextArea }

// ReadOnly reports whether the file cannot be opened for writing.
func (f *File) ReadOnly() bool {
	fh, err := os.OpenFile(f.path, os.O_WRONLY, 0)
	if err != nil {
		return true
	}
	_ = fh.Close()
	return false
}

// Disabled reports whether the path is missing or not a regular file.
func (f *File) Disabled() bool {
	info, err := os.Stat(f.path)
	return err != nil || !info.Mode().IsRegular()
}

// Text reads the file.
func (f *File) Text() (string, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return "", err
	}
	defer func() { _ = fh.Close() }()

	var r io.Reader = fh
	if f.maxSize > 0 {
		r = io.LimitReader(fh, f.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.maxSize > 0 && int64(len(data)) > f.maxSize {
		return "", fmt.Errorf("%s exceeds %d bytes", f.path, f.maxSize)
	}
	return string(data), nil
}

// SetValue rewrites the file with v, truncating it.
func (f *File) SetValue(v string) error {
	fh, err := os.OpenFile(f.path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(fh, v); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

// SetContent is not supported for files.
func (f *File) SetContent(string) error {
	return errors.New("files have no rich content")
}

// Selector harvests element text without a document. It serves headless
// environments where there is no visible selection to make.
type Selector struct{}

var _ clipboard.SelectionEngine = Selector{}

// Select returns the element's text.
func (Selector) Select(el clipboard.Element) (string, error) {
	t, ok := el.(interface{ Text() (string, error) })
	if !ok {
		return "", fmt.Errorf("element %T has no readable text", el)
	}
	return t.Text()
}
