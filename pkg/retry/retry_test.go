package retry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
)

// recordingController fires every wait immediately and remembers its length.
type recordingController struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingController) controller() *Controller {
	return &Controller{After: func(d time.Duration) <-chan time.Time {
		r.mu.Lock()
		r.delays = append(r.delays, d)
		r.mu.Unlock()
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Config
		wantErr bool
	}{
		{name: "nil uses defaults", in: nil, want: DefaultConfig()},
		{name: "bare int is retries", in: 5, want: Config{Retries: 5, RetryDelay: DefaultRetryDelay}},
		{name: "zero int", in: 0, want: Config{Retries: 0, RetryDelay: DefaultRetryDelay}},
		{
			name: "config value",
			in:   Config{Retries: 1, RetryDelay: time.Second, Timeout: time.Minute},
			want: Config{Retries: 1, RetryDelay: time.Second, Timeout: time.Minute},
		},
		{name: "config pointer fills delay", in: &Config{Retries: 3}, want: Config{Retries: 3, RetryDelay: DefaultRetryDelay}},
		{name: "negative retries", in: -1, wantErr: true},
		{name: "negative timeout", in: Config{Timeout: -time.Second}, wantErr: true},
		{name: "wrong type", in: "three", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, cliperr.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_PermanentFailureAttemptsRetriesPlusOne(t *testing.T) {
	for _, retries := range []int{0, 1, 2, 5} {
		rec := &recordingController{}
		var calls int
		var last error

		_, err := Run(context.Background(), rec.controller(), Config{Retries: retries, RetryDelay: time.Millisecond},
			func(context.Context) (string, error) {
				calls++
				last = errors.New("boom")
				return "", last
			})

		assert.Equal(t, retries+1, calls, "retries=%d", retries)
		assert.Same(t, last, err, "last failure must be returned unchanged")
	}
}

func TestRun_BackoffDelaysDouble(t *testing.T) {
	rec := &recordingController{}

	_, err := Run(context.Background(), rec.controller(), Config{Retries: 4, RetryDelay: 100 * time.Millisecond},
		func(context.Context) (int, error) { return 0, errors.New("nope") })
	require.Error(t, err)

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}, rec.delays)
}

func TestRun_EventualSuccess(t *testing.T) {
	rec := &recordingController{}
	calls := 0

	v, err := Run(context.Background(), rec.controller(), DefaultConfig(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	assert.Len(t, rec.delays, 2)
}

func TestRun_ZeroRetriesSingleAttempt(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Config{Retries: 0, RetryDelay: time.Millisecond}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRun_TimeoutBeatsLateSuccess(t *testing.T) {
	start := time.Now()
	cancelled := make(chan struct{})

	_, err := Do(context.Background(), Config{Retries: 0, RetryDelay: time.Millisecond, Timeout: 50 * time.Millisecond},
		func(ctx context.Context) (string, error) {
			select {
			case <-time.After(500 * time.Millisecond):
				return "late", nil
			case <-ctx.Done():
				close(cancelled)
				return "", ctx.Err()
			}
		})

	elapsed := time.Since(start)
	require.Error(t, err)
	assert.ErrorIs(t, err, cliperr.ErrTimeoutExceeded)
	assert.Less(t, elapsed, 400*time.Millisecond)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("attempt context was not cancelled after timeout")
	}
}

func TestRun_NoTimeoutAllowsSlowSuccess(t *testing.T) {
	v, err := Do(context.Background(), Config{Retries: 0, RetryDelay: time.Millisecond},
		func(context.Context) (string, error) {
			time.Sleep(80 * time.Millisecond)
			return "slow", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "slow", v)
}

func TestRun_TimeoutCoversWholeSequence(t *testing.T) {
	var calls atomic.Int32
	_, err := Do(context.Background(), Config{Retries: 10, RetryDelay: 40 * time.Millisecond, Timeout: 100 * time.Millisecond},
		func(context.Context) (int, error) {
			calls.Add(1)
			return 0, errors.New("fail")
		})

	assert.ErrorIs(t, err, cliperr.ErrTimeoutExceeded)
	assert.Less(t, calls.Load(), int32(11))
}

func TestRun_ParentCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, Config{Retries: 3, RetryDelay: time.Second}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoff(t *testing.T) {
	b := NewBackoff(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, b.Next())
	assert.Equal(t, 100*time.Millisecond, b.Next())
	assert.Equal(t, 200*time.Millisecond, b.Next())
	assert.Equal(t, 3, b.Attempts())

	b.Reset()
	assert.Equal(t, 0, b.Attempts())
	assert.Equal(t, 50*time.Millisecond, b.Next())
}

func TestBackoff_SaturatesInsteadOfOverflowing(t *testing.T) {
	b := NewBackoff(100 * time.Millisecond)
	prev := time.Duration(0)
	for i := 0; i < 80; i++ {
		d := b.Next()
		require.Positive(t, d, "delay %d", i+1)
		require.GreaterOrEqual(t, d, prev, "delay %d", i+1)
		prev = d
	}
	assert.Equal(t, maxDelay, prev)
}

func TestRun_ManyRetriesNeverWaitNegative(t *testing.T) {
	rec := &recordingController{}
	cfg := Config{Retries: 40, RetryDelay: 100 * time.Millisecond}

	_, err := Run(context.Background(), rec.controller(), cfg, func(context.Context) (int, error) {
		return 0, errors.New("still failing")
	})
	require.Error(t, err)

	require.Len(t, rec.delays, 40)
	for i, d := range rec.delays {
		assert.Positive(t, d, "retry %d", i+1)
	}
}

func TestDelayFor(t *testing.T) {
	for k := 1; k <= 6; k++ {
		assert.Equal(t, doubled(k), DelayFor(100*time.Millisecond, k))
	}
	assert.Equal(t, maxDelay, DelayFor(100*time.Millisecond, 38))
	assert.Equal(t, maxDelay, DelayFor(time.Nanosecond, 100))
}

func doubled(k int) time.Duration {
	d := 100 * time.Millisecond
	for i := 1; i < k; i++ {
		d *= 2
	}
	return d
}
