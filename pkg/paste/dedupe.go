package paste

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Veraticus/clipkit/pkg/clipboard"
	"github.com/Veraticus/clipkit/pkg/logging"
)

// DefaultDedupeSize is the number of recent items Dedupe remembers when
// size <= 0.
const DefaultDedupeSize = 64

// Dedupe wraps src so that an item identical to one emitted less than
// window ago is dropped. Sources that report a single copy more than once,
// or several merged sources observing the same change, then deliver it
// once.
func Dedupe(src Source, window time.Duration, size int) Source {
	return SourceFunc(func(ctx context.Context, emit func(clipboard.Item)) error {
		log := logging.FromContext(ctx)
		seen := newRecentCache(size)

		return src.Subscribe(ctx, func(item clipboard.Item) {
			key := itemKey(item)
			now := time.Now()
			if last, ok := seen.Get(key); ok && now.Sub(last) < window {
				log.Trace().Str("key", key[:12]).Msg("dropping duplicate clipboard item")
				return
			}
			seen.Add(key, now)
			emit(item)
		})
	})
}

// itemKey hashes every part of item, type included.
func itemKey(item clipboard.Item) string {
	h := sha256.New()
	for _, p := range item.Parts {
		h.Write([]byte(p.Type))
		h.Write([]byte{0})
		h.Write(p.Data)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// recentCache is a fixed-size LRU from item key to the time it was last
// emitted.
type recentCache struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	mu        sync.Mutex
}

type recentEntry struct {
	key  string
	seen time.Time
}

func newRecentCache(size int) *recentCache {
	if size <= 0 {
		size = DefaultDedupeSize
	}
	return &recentCache{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}
}

// Add records key as seen at t, evicting the least recently used entry when
// the cache is full.
func (c *recentCache) Add(key string, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.evictList.MoveToFront(elem)
		elem.Value.(*recentEntry).seen = t
		return
	}

	c.items[key] = c.evictList.PushFront(&recentEntry{key: key, seen: t})
	if c.evictList.Len() > c.size {
		oldest := c.evictList.Back()
		c.evictList.Remove(oldest)
		delete(c.items, oldest.Value.(*recentEntry).key)
	}
}

// Get returns when key was last seen.
func (c *recentCache) Get(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return time.Time{}, false
	}
	c.evictList.MoveToFront(elem)
	return elem.Value.(*recentEntry).seen, true
}

// Len returns the number of remembered keys.
func (c *recentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}
