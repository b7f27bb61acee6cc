package paste

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/clipkit/pkg/clipboard"
)

func textItem(s string) clipboard.Item {
	return clipboard.Item{Parts: []clipboard.Part{{Type: clipboard.MIMEText, Data: []byte(s)}}}
}

// replay emits the given items in order and returns.
func replay(items ...clipboard.Item) Source {
	return SourceFunc(func(_ context.Context, emit func(clipboard.Item)) error {
		for _, it := range items {
			emit(it)
		}
		return nil
	})
}

func TestDedupe(t *testing.T) {
	src := Dedupe(replay(textItem("a"), textItem("a"), textItem("b"), textItem("a")), time.Hour, 0)

	var got []string
	err := src.Subscribe(context.Background(), func(item clipboard.Item) {
		got = append(got, string(item.Parts[0].Data))
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestDedupe_WindowExpires(t *testing.T) {
	src := Dedupe(SourceFunc(func(_ context.Context, emit func(clipboard.Item)) error {
		emit(textItem("a"))
		time.Sleep(20 * time.Millisecond)
		emit(textItem("a"))
		return nil
	}), 5*time.Millisecond, 0)

	count := 0
	require.NoError(t, src.Subscribe(context.Background(), func(clipboard.Item) { count++ }))
	assert.Equal(t, 2, count)
}

func TestDedupe_TypeMatters(t *testing.T) {
	html := clipboard.Item{Parts: []clipboard.Part{{Type: clipboard.MIMEHTML, Data: []byte("a")}}}
	src := Dedupe(replay(textItem("a"), html), time.Hour, 0)

	count := 0
	require.NoError(t, src.Subscribe(context.Background(), func(clipboard.Item) { count++ }))
	assert.Equal(t, 2, count)
}

func TestRecentCache_Evicts(t *testing.T) {
	c := newRecentCache(3)
	now := time.Now()
	for i := 0; i < 5; i++ {
		c.Add(fmt.Sprintf("k%d", i), now)
	}
	assert.Equal(t, 3, c.Len())

	_, ok := c.Get("k0")
	assert.False(t, ok)
	_, ok = c.Get("k4")
	assert.True(t, ok)

	// k2 is now least recently used after touching k3
	_, _ = c.Get("k3")
	_, _ = c.Get("k4")
	c.Add("k5", now)
	_, ok = c.Get("k2")
	assert.False(t, ok)

	assert.Equal(t, DefaultDedupeSize, newRecentCache(0).size)
}
