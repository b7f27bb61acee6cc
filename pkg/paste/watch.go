package paste

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/Veraticus/clipkit/pkg/clipboard"
	"github.com/Veraticus/clipkit/pkg/logging"
)

// ReadFunc returns the current clipboard text.
type ReadFunc func(ctx context.Context) (string, error)

// WatchSource polls a ReadFunc and emits a text item whenever the content
// changes. Polling slows down after a run of unchanged reads and speeds up
// again on the next change.
type WatchSource struct {
	read         ReadFunc
	interval     time.Duration
	idleInterval time.Duration
	maxIdle      int
}

// WatchOption configures a WatchSource.
type WatchOption func(*WatchSource)

// WithInterval sets the polling interval while the clipboard is active.
func WithInterval(d time.Duration) WatchOption {
	return func(w *WatchSource) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithIdleInterval sets the polling interval once the clipboard is idle.
func WithIdleInterval(d time.Duration) WatchOption {
	return func(w *WatchSource) {
		if d > 0 {
			w.idleInterval = d
		}
	}
}

// WithMaxIdle sets how many unchanged reads switch to the idle interval.
func WithMaxIdle(n int) WatchOption {
	return func(w *WatchSource) {
		if n > 0 {
			w.maxIdle = n
		}
	}
}

// NewWatchSource creates a polling source. Defaults: 500ms, 2s when idle,
// idle after 10 unchanged reads.
func NewWatchSource(read ReadFunc, opts ...WatchOption) *WatchSource {
	w := &WatchSource{
		read:         read,
		interval:     500 * time.Millisecond,
		idleInterval: 2 * time.Second,
		maxIdle:      10,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Subscribe polls until ctx is done. The first content read successfully
// is the baseline and is not emitted. Read errors are logged and skipped.
func (w *WatchSource) Subscribe(ctx context.Context, emit func(clipboard.Item)) error {
	log := logging.FromContext(ctx)

	var lastHash string
	baselined := false
	if content, err := w.read(ctx); err == nil {
		lastHash = hashContent(content)
		baselined = true
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	idleCount := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			content, err := w.read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Debug().Err(err).Msg("clipboard poll failed")
				continue
			}

			newHash := hashContent(content)
			if !baselined {
				lastHash = newHash
				baselined = true
				continue
			}
			if newHash == lastHash {
				idleCount++
				if idleCount == w.maxIdle {
					ticker.Reset(w.idleInterval)
				}
				continue
			}

			lastHash = newHash
			if idleCount >= w.maxIdle {
				ticker.Reset(w.interval)
			}
			idleCount = 0
			emit(clipboard.Item{Parts: []clipboard.Part{{Type: clipboard.MIMEText, Data: []byte(content)}}})
		}
	}
}

// hashContent hashes content with line endings normalized.
func hashContent(content string) string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}
