// Package retry wraps a fallible operation with bounded retries and an
// optional wall-clock deadline.
//
// The retry sequence is: run the operation; on failure wait
// RetryDelay * 2^(attempt-1) and run it again, until it succeeds or
// Retries additional attempts have failed. The last failure is returned
// unchanged. When Timeout is positive the whole sequence (not each attempt)
// is raced against one timer; if the timer wins the caller receives a
// timeout error and the context handed to the operation is cancelled.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
	"github.com/Veraticus/clipkit/pkg/logging"
)

const (
	// DefaultRetries is the number of additional attempts after the first.
	DefaultRetries = 2
	// DefaultRetryDelay is the wait before the first retry.
	DefaultRetryDelay = 100 * time.Millisecond
)

// Config controls a retry sequence.
type Config struct {
	// Retries counts additional attempts; total attempts = Retries + 1.
	Retries int
	// RetryDelay is the wait before the first retry; later waits double.
	RetryDelay time.Duration
	// Timeout bounds the whole sequence. Zero means unbounded.
	Timeout time.Duration
}

// DefaultConfig returns two retries, 100ms initial delay and no timeout.
func DefaultConfig() Config {
	return Config{
		Retries:    DefaultRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.Retries < 0 {
		return cliperr.InvalidArgument("retries must be non-negative, got %d", c.Retries)
	}
	if c.RetryDelay <= 0 {
		return cliperr.InvalidArgument("retry delay must be positive, got %v", c.RetryDelay)
	}
	if c.Timeout < 0 {
		return cliperr.InvalidArgument("timeout must be non-negative, got %v", c.Timeout)
	}
	return nil
}

// Parse normalizes the accepted retry option forms. A nil value yields the
// defaults, a bare int is shorthand for Retries with default delay, and a
// Config (or pointer to one) has its zero RetryDelay filled in.
func Parse(v any) (Config, error) {
	cfg := DefaultConfig()

	switch val := v.(type) {
	case nil:
	case int:
		cfg.Retries = val
	case Config:
		cfg = val
	case *Config:
		if val != nil {
			cfg = *val
		}
	default:
		return Config{}, cliperr.InvalidArgument("unsupported retry option of type %T", v)
	}

	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Controller runs retry sequences. The zero value uses real timers.
// A Controller holds no state between calls and is safe for concurrent use.
type Controller struct {
	// After replaces time.After, mostly for tests.
	After func(time.Duration) <-chan time.Time
}

func (c *Controller) after(d time.Duration) <-chan time.Time {
	if c != nil && c.After != nil {
		return c.After(d)
	}
	return time.After(d)
}

// Operation is one attempt of a retried call.
type Operation[T any] func(ctx context.Context) (T, error)

// Do runs op under cfg with a zero Controller.
func Do[T any](ctx context.Context, cfg Config, op Operation[T]) (T, error) {
	return Run(ctx, nil, cfg, op)
}

// Run runs op under cfg using c for timing.
func Run[T any](ctx context.Context, c *Controller, cfg Config, op Operation[T]) (T, error) {
	if cfg.Timeout <= 0 {
		return sequence(ctx, c, cfg, op)
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		v, err := sequence(attemptCtx, c, cfg, op)
		done <- result{val: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		return r.val, r.err
	case <-c.after(cfg.Timeout):
		logging.FromContext(ctx).Debug().
			Dur("timeout", cfg.Timeout).
			Msg("retry sequence timed out")
		return zero, cliperr.Timeout(fmt.Sprintf("operation did not complete within %v", cfg.Timeout))
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func sequence[T any](ctx context.Context, c *Controller, cfg Config, op Operation[T]) (T, error) {
	log := logging.FromContext(ctx)
	backoff := NewBackoff(cfg.RetryDelay)

	attempt := 0
	for {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		attempt++
		if attempt > cfg.Retries {
			return v, err
		}

		delay := backoff.Next()
		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("attempt failed, backing off")

		select {
		case <-c.after(delay):
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
