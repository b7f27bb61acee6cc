// Package listener runs background subscriptions and hands the caller a
// Handle to stop them.
package listener

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/clipkit/pkg/logging"
)

// Recorder receives the number of running listeners after every change.
// clipboard.MetricsCollector implements it.
type Recorder interface {
	RecordListenerCount(count int)
}

var active atomic.Int64

// Active returns the number of listeners whose run function has not
// returned.
func Active() int {
	return int(active.Load())
}

// Handle controls a running listener.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

// Go starts run in a goroutine with a context that is cancelled by
// Destroy or by the parent ctx. rec may be nil.
func Go(ctx context.Context, rec Recorder, run func(ctx context.Context) error) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	log := logging.FromContext(ctx)

	record(rec, active.Add(1))
	go func() {
		defer close(h.done)
		defer func() {
			record(rec, active.Add(-1))
		}()

		if err := run(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("listener stopped")
			h.mu.Lock()
			h.err = err
			h.mu.Unlock()
		}
	}()
	return h
}

func record(rec Recorder, n int64) {
	if rec != nil {
		rec.RecordListenerCount(int(n))
	}
}

// Destroy stops the listener. Further calls do nothing. Destroy does not
// wait for the run function to return; use Done for that.
func (h *Handle) Destroy() {
	h.once.Do(h.cancel)
}

// Done is closed once the run function has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the error the run function failed with before the listener
// was destroyed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
