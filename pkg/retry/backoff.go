package retry

import (
	"math"
	"sync"
	"time"
)

const maxDelay = time.Duration(math.MaxInt64)

// Backoff produces pure exponential delays: initial, 2*initial, 4*initial...
// There is no jitter; the retry count is what bounds the sequence. A delay
// that would overflow saturates at maxDelay.
type Backoff struct {
	initial time.Duration
	factor  int64

	mu       sync.Mutex
	current  time.Duration
	attempts int
}

// NewBackoff creates a doubling backoff starting at initial.
func NewBackoff(initial time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultRetryDelay
	}
	return &Backoff{
		initial: initial,
		factor:  2,
		current: initial,
	}
}

// Next returns the next delay and advances the backoff.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.current
	b.attempts++
	if b.current > maxDelay/time.Duration(b.factor) {
		b.current = maxDelay
	} else {
		b.current *= time.Duration(b.factor)
	}
	return d
}

// Reset returns the backoff to its initial delay.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = b.initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// DelayFor returns the wait before the k-th retry (k >= 1): initial * 2^(k-1).
func DelayFor(initial time.Duration, k int) time.Duration {
	if k <= 1 {
		return initial
	}
	if k-1 >= 63 || initial > maxDelay>>uint(k-1) {
		return maxDelay
	}
	return initial << uint(k-1)
}
