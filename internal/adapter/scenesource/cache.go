package scenesource

import (
	"context"
	"sync"

	"github.com/couchcryptid/fire-index-etl/internal/domain"
	"github.com/couchcryptid/fire-index-etl/internal/observability"
)

// CachedSource wraps a SceneSource with an in-memory LRU cache keyed by URI.
type CachedSource struct {
	inner   domain.SceneSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a scene source.
func NewCachedSource(inner domain.SceneSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// LoadScene returns the cached scene for uri or loads it from the inner source.
// Failed loads are not cached so they can be retried.
func (c *CachedSource) LoadScene(ctx context.Context, uri string) (domain.Scene, error) {
	if scene, ok := c.cache.get(uri); ok {
		c.metrics.SceneCache.WithLabelValues("hit").Inc()
		return scene, nil
	}
	c.metrics.SceneCache.WithLabelValues("miss").Inc()

	scene, err := c.inner.LoadScene(ctx, uri)
	if err != nil {
		return domain.Scene{}, err
	}
	c.cache.put(uri, scene)
	return scene, nil
}

// lruCache is a thread-safe LRU cache of decoded scenes.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Scene
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) get(key string) (domain.Scene, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Scene{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Scene) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictOldest()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictOldest() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
