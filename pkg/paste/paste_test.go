package paste

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/clipkit/pkg/clipboard"
)

type collector struct {
	mu   sync.Mutex
	seen []Observation
}

func (c *collector) add(o Observation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, o)
}

func (c *collector) all() []Observation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Observation(nil), c.seen...)
}

func waitSubscribed(t *testing.T, mem *clipboard.MemoryClipboard, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return mem.SubscriberCount() == n }, time.Second, time.Millisecond)
}

func TestObserve(t *testing.T) {
	item := clipboard.Item{Parts: []clipboard.Part{
		{Type: clipboard.MIMEText, Data: []byte("hi")},
		{Type: clipboard.MIMEHTML, Data: []byte("<b>hi</b>")},
		{Type: clipboard.MIMEPNG, Data: []byte{1, 2}},
		{Type: "application/x-unknown-thing", Data: []byte{3}},
	}}

	obs := Observe(item, "trigger")
	assert.Equal(t, "hi", obs.Text)
	assert.Equal(t, "<b>hi</b>", obs.HTML)
	require.Len(t, obs.Files, 2)
	assert.Equal(t, "clipboard.png", obs.Files[0].Name)
	assert.Equal(t, clipboard.MIMEPNG, obs.Files[0].Type)
	assert.Equal(t, "clipboard-1.bin", obs.Files[1].Name)
	assert.Equal(t, "trigger", obs.Trigger)
	assert.Equal(t, item, obs.OriginalEvent)

	assert.Equal(t, "text(2),html(9),image/png(2),application/x-unknown-thing(1)", Describe(obs))
	assert.Equal(t, "empty", Describe(Observation{}))
}

func TestListen_InvalidArguments(t *testing.T) {
	_, err := Listen(context.Background(), nil, func(Observation) {})
	assert.ErrorIs(t, err, clipboard.ErrInvalidArgument)

	_, err = Listen(context.Background(), clipboard.NewMemoryClipboard(), nil)
	assert.ErrorIs(t, err, clipboard.ErrInvalidArgument)
}

func TestListen_MemoryClipboard(t *testing.T) {
	mem := clipboard.NewMemoryClipboard()
	metrics := clipboard.NewDefaultMetricsCollector()
	var got collector
	before := Active()

	h, err := Listen(context.Background(), mem, got.add, WithTrigger("tester"), WithMetrics(metrics))
	require.NoError(t, err)
	waitSubscribed(t, mem, 1)
	assert.Equal(t, before+1, metrics.GetMetrics().ListenerCount)

	require.NoError(t, mem.WriteText(context.Background(), "first"))
	require.NoError(t, mem.WriteItem(context.Background(), clipboard.Item{Parts: []clipboard.Part{
		{Type: clipboard.MIMEText, Data: []byte("rich")},
		{Type: clipboard.MIMEHTML, Data: []byte("<i>rich</i>")},
	}}))

	require.Eventually(t, func() bool { return len(got.all()) == 2 }, time.Second, time.Millisecond)
	seen := got.all()
	assert.Equal(t, "first", seen[0].Text)
	assert.Equal(t, "rich", seen[1].Text)
	assert.Equal(t, "<i>rich</i>", seen[1].HTML)
	assert.Equal(t, "tester", seen[1].Trigger)

	h.Destroy()
	h.Destroy()
	<-h.Done()
	assert.NoError(t, h.Err())
	assert.Equal(t, 0, mem.SubscriberCount())
	assert.Equal(t, before, metrics.GetMetrics().ListenerCount)

	require.NoError(t, mem.WriteText(context.Background(), "after destroy"))
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, got.all(), 2)
}

func TestListen_ParentContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h, err := Listen(ctx, clipboard.NewMemoryClipboard(), func(Observation) {})
	require.NoError(t, err)

	cancel()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("listener did not stop with its context")
	}
}

func TestListen_SourceFailure(t *testing.T) {
	boom := errors.New("display gone")
	src := SourceFunc(func(context.Context, func(clipboard.Item)) error { return boom })

	h, err := Listen(context.Background(), src, func(Observation) {})
	require.NoError(t, err)
	<-h.Done()
	assert.ErrorIs(t, h.Err(), boom)
	h.Destroy()
}

func TestListen_DestroyFromHandler(t *testing.T) {
	mem := clipboard.NewMemoryClipboard()
	var h *Handle
	var calls atomic.Int32

	var err error
	h, err = Listen(context.Background(), mem, func(Observation) {
		calls.Add(1)
		h.Destroy()
	})
	require.NoError(t, err)
	waitSubscribed(t, mem, 1)

	require.NoError(t, mem.WriteText(context.Background(), "once"))
	<-h.Done()
	assert.Equal(t, int32(1), calls.Load())
}

func TestMerge(t *testing.T) {
	a := clipboard.NewMemoryClipboard()
	b := clipboard.NewMemoryClipboard()
	failing := SourceFunc(func(context.Context, func(clipboard.Item)) error {
		return errors.New("unavailable")
	})
	var got collector

	h, err := Listen(context.Background(), Merge(a, nil, failing, b), got.add)
	require.NoError(t, err)
	waitSubscribed(t, a, 1)
	waitSubscribed(t, b, 1)

	require.NoError(t, a.WriteText(context.Background(), "from a"))
	require.NoError(t, b.WriteText(context.Background(), "from b"))
	require.Eventually(t, func() bool { return len(got.all()) == 2 }, time.Second, time.Millisecond)

	texts := []string{got.all()[0].Text, got.all()[1].Text}
	assert.ElementsMatch(t, []string{"from a", "from b"}, texts)

	h.Destroy()
	<-h.Done()
	assert.Equal(t, 0, a.SubscriberCount())
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestWatchSource(t *testing.T) {
	mem := clipboard.NewMemoryClipboard()
	require.NoError(t, mem.WriteText(context.Background(), "baseline"))

	src := NewWatchSource(mem.ReadText, WithInterval(2*time.Millisecond), WithIdleInterval(5*time.Millisecond), WithMaxIdle(3))
	var got collector
	h, err := Listen(context.Background(), src, got.add)
	require.NoError(t, err)
	defer h.Destroy()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, got.all(), "baseline content must not be emitted")

	require.NoError(t, mem.WriteText(context.Background(), "changed"))
	require.Eventually(t, func() bool { return len(got.all()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "changed", got.all()[0].Text)

	require.NoError(t, mem.WriteText(context.Background(), "a\r\nb"))
	require.Eventually(t, func() bool { return len(got.all()) == 2 }, time.Second, time.Millisecond)
	// Only the line endings differ.
	require.NoError(t, mem.WriteText(context.Background(), "a\nb"))
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, got.all(), 2)
}

func TestWatchSource_ReadErrorsSkipped(t *testing.T) {
	mem := clipboard.NewMemoryClipboard()
	mem.FailReads(errors.New("busy"))

	src := NewWatchSource(mem.ReadText, WithInterval(time.Millisecond))
	var got collector
	h, err := Listen(context.Background(), src, got.add)
	require.NoError(t, err)
	defer h.Destroy()

	require.Eventually(t, func() bool { return mem.Reads() > 3 }, time.Second, time.Millisecond)
	mem.FailReads(nil)
	n := mem.Reads()
	require.Eventually(t, func() bool { return mem.Reads() >= n+2 }, time.Second, time.Millisecond)
	require.NoError(t, mem.WriteText(context.Background(), "recovered"))
	require.Eventually(t, func() bool { return len(got.all()) == 1 }, time.Second, time.Millisecond)
	assert.NoError(t, h.Err())
}

func TestHashContent(t *testing.T) {
	assert.Equal(t, hashContent("a\nb"), hashContent("a\r\nb"))
	assert.NotEqual(t, hashContent("a"), hashContent("b"))
}
