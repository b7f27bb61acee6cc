package clipboard

import (
	"context"
	"sync"
	"time"
)

// MemoryClipboard is an in-process clipboard. It implements AsyncAPI and
// ItemWriter, can be subscribed to as a change source, and supports failure
// injection for tests.
//
//nolint:govet // fieldalignment: not performance critical
type MemoryClipboard struct {
	mu          sync.RWMutex
	item        Item
	modified    time.Time
	writes      int
	reads       int
	failWrites  int
	writeErr    error
	readErr     error
	writeDelay  time.Duration
	subscribers []chan Item
	subMu       sync.Mutex
}

var (
	_ AsyncAPI   = (*MemoryClipboard)(nil)
	_ ItemWriter = (*MemoryClipboard)(nil)
)

// NewMemoryClipboard creates an empty in-memory clipboard.
func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{modified: time.Now()}
}

// FailWrites makes the next n writes fail with err. n < 0 fails every write.
func (m *MemoryClipboard) FailWrites(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = n
	m.writeErr = err
}

// FailReads makes every read fail with err until called with nil.
func (m *MemoryClipboard) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteDelay makes writes block for d or until their context ends.
func (m *MemoryClipboard) SetWriteDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeDelay = d
}

// WriteText replaces the clipboard with a text/plain item.
func (m *MemoryClipboard) WriteText(ctx context.Context, text string) error {
	return m.WriteItem(ctx, Item{Parts: []Part{{Type: MIMEText, Data: []byte(text)}}})
}

// WriteItem replaces the clipboard with item.
func (m *MemoryClipboard) WriteItem(ctx context.Context, item Item) error {
	m.mu.Lock()
	m.writes++
	delay := m.writeDelay
	var err error
	if m.failWrites != 0 {
		if m.failWrites > 0 {
			m.failWrites--
		}
		err = m.writeErr
	}
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if err != nil {
		return err
	}

	cp := Item{Parts: make([]Part, len(item.Parts))}
	for i, p := range item.Parts {
		cp.Parts[i] = Part{Type: p.Type, Data: append([]byte(nil), p.Data...)}
	}

	m.mu.Lock()
	m.item = cp
	m.modified = time.Now()
	m.mu.Unlock()

	m.notify(cp)
	return nil
}

// ReadText returns the text/plain part of the current item.
func (m *MemoryClipboard) ReadText(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return "", m.readErr
	}
	data, _ := m.item.Get(MIMEText)
	return string(data), nil
}

// Item returns the current item.
func (m *MemoryClipboard) Item() Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.item
}

// LastModified returns when the clipboard was last written.
func (m *MemoryClipboard) LastModified() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modified
}

// Writes returns the number of write calls, including failed ones.
func (m *MemoryClipboard) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Reads returns the number of read calls, including failed ones.
func (m *MemoryClipboard) Reads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

// Subscribe calls emit with every item written until ctx is done. It
// returns nil on cancellation.
func (m *MemoryClipboard) Subscribe(ctx context.Context, emit func(Item)) error {
	ch := make(chan Item, 10)

	m.subMu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.subMu.Unlock()

	defer func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, sub := range m.subscribers {
			if sub == ch {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				break
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case item := <-ch:
			emit(item)
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (m *MemoryClipboard) SubscriberCount() int {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	return len(m.subscribers)
}

func (m *MemoryClipboard) notify(item Item) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- item:
		default:
			// Subscriber is behind, drop the change
		}
	}
}
