package compiler

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// cacheKey returns the content key for a template's source text.
func cacheKey(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	key  string
	unit *Unit
}

// unitCache holds compiled units keyed by source text. A capacity of zero
// keeps every entry; otherwise the least recently used entry is evicted
// once the cache is full.
type unitCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

func newUnitCache(capacity int) *unitCache {
	if capacity < 0 {
		capacity = 0
	}
	return &unitCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (c *unitCache) get(src string) (*Unit, bool) {
	key := cacheKey(src)
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).unit, true
}

// put stores u. A unit already cached for the same source is replaced.
func (c *unitCache) put(u *Unit) {
	key := cacheKey(u.Source)
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).unit = u
		c.ll.MoveToFront(el)
		return
	}
	if c.capacity > 0 && c.ll.Len() >= c.capacity {
		if last := c.ll.Back(); last != nil {
			c.ll.Remove(last)
			delete(c.items, last.Value.(*cacheEntry).key)
		}
	}
	c.items[key] = c.ll.PushFront(&cacheEntry{key: key, unit: u})
}

func (c *unitCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
