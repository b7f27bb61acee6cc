package clipboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Veraticus/clipkit/pkg/retry"
)

var errDenied = errors.New("write permission denied")

// instant is a controller whose backoff waits return immediately.
func instant() *retry.Controller {
	return &retry.Controller{After: func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}}
}

type fakeScratch struct {
	doc       *fakeDocument
	selectErr error
	removed   int
}

func (s *fakeScratch) SelectAll() error {
	if s.selectErr != nil {
		return s.selectErr
	}
	s.doc.mu.Lock()
	s.doc.selected = true
	s.doc.mu.Unlock()
	return nil
}

func (s *fakeScratch) Remove() {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	s.removed++
	s.doc.removed++
}

type fakeDocument struct {
	mu          sync.Mutex
	supported   map[string]bool
	results     map[string]bool
	execErr     error
	panicOn     string
	selectErr   error
	contents    []Content
	containers  []any
	execs       []string
	removed     int
	cleared     int
	selected    bool
	copiedTexts []string
}

func newFakeDocument() *fakeDocument {
	return &fakeDocument{
		supported: map[string]bool{"copy": true},
		results:   map[string]bool{"copy": true, "cut": true},
	}
}

func (d *fakeDocument) Materialize(container any, content Content) (Scratch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contents = append(d.contents, content)
	d.containers = append(d.containers, container)
	return &fakeScratch{doc: d, selectErr: d.selectErr}, nil
}

func (d *fakeDocument) ExecCommand(action string) (bool, error) {
	if action == d.panicOn {
		panic("exec " + action)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execs = append(d.execs, action)
	if d.execErr != nil {
		return false, d.execErr
	}
	return d.results[action], nil
}

func (d *fakeDocument) CommandSupported(action string) bool {
	if action == d.panicOn {
		panic("supported " + action)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.supported[action]
}

func (d *fakeDocument) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared++
	d.selected = false
}

type fakeElement struct {
	kind     ElementKind
	readOnly bool
	disabled bool
	value    string
	content  string
}

func (e *fakeElement) Kind() ElementKind { return e.kind }
func (e *fakeElement) ReadOnly() bool    { return e.readOnly }
func (e *fakeElement) Disabled() bool    { return e.disabled }

func (e *fakeElement) SetValue(v string) error {
	e.value = v
	return nil
}

func (e *fakeElement) SetContent(c string) error {
	e.content = c
	return nil
}

type fakeSelection struct {
	mu    sync.Mutex
	calls int
}

func (s *fakeSelection) Select(el Element) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	fe := el.(*fakeElement)
	if fe.kind == KindRichEditable {
		return fe.content, nil
	}
	return fe.value, nil
}

type fakeProcess struct {
	mu       sync.Mutex
	writes   []string
	writeErr error
	read     string
	readErr  error
}

func (p *fakeProcess) Write(_ context.Context, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, text)
	if p.writeErr != nil {
		return "", p.writeErr
	}
	return text, nil
}

func (p *fakeProcess) Read(context.Context) (string, error) {
	return p.read, p.readErr
}

type fakeQuerier struct {
	state PermissionState
	err   error
}

func (q *fakeQuerier) Query(context.Context, PermissionKind) (PermissionState, error) {
	return q.state, q.err
}

type fakeImage struct{ src string }

func (i fakeImage) Src() string { return i.src }

// singleSelectionDocument keeps one selection for every caller, like a real
// document, and records what each "copy" emitted into which container.
type singleSelectionDocument struct {
	mu       sync.Mutex
	selected bool
	owner    any
	text     string
	emitted  map[any][]string
}

func newSingleSelectionDocument() *singleSelectionDocument {
	return &singleSelectionDocument{emitted: map[any][]string{}}
}

type singleScratch struct {
	doc       *singleSelectionDocument
	container any
	text      string
}

func (s *singleScratch) SelectAll() error {
	s.doc.mu.Lock()
	s.doc.selected = true
	s.doc.owner = s.container
	s.doc.text = s.text
	s.doc.mu.Unlock()
	// Give other callers a chance to move the selection.
	time.Sleep(time.Millisecond)
	return nil
}

func (s *singleScratch) Remove() {}

func (d *singleSelectionDocument) Materialize(container any, content Content) (Scratch, error) {
	return &singleScratch{doc: d, container: container, text: content.Text}, nil
}

func (d *singleSelectionDocument) ExecCommand(action string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if action != "copy" || !d.selected {
		return false, nil
	}
	d.emitted[d.owner] = append(d.emitted[d.owner], d.text)
	return true, nil
}

func (d *singleSelectionDocument) CommandSupported(action string) bool {
	return action == "copy"
}

func (d *singleSelectionDocument) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected = false
	d.owner = nil
	d.text = ""
}
