package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type CacheItem[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Cache is an in-memory TTL map. Expired entries are invisible to Get and
// swept periodically until Close is called.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]CacheItem[V]
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func New[V any]() *Cache[V] {
	return NewWithCleanup[V](time.Hour)
}

// NewWithCleanup sweeps expired entries every interval. A non-positive
// interval disables the sweeper.
func NewWithCleanup[V any](interval time.Duration) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]CacheItem[V]),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if interval > 0 {
		go c.cleanupLoop(interval)
	}
	return c
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = CacheItem[V]{
		Value:     value,
		ExpiresAt: c.now().Add(ttl),
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !exists || c.now().After(item.ExpiresAt) {
		return zero, false
	}
	return item.Value, true
}

// Len counts stored entries, including expired ones not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the sweeper. The cache stays usable.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// GenerateKey hashes an article into a cache key.
func GenerateKey(title, content string) string {
	h := sha256.New()
	h.Write([]byte(title + content))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
		}
	}
}
