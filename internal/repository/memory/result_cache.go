package memory

import (
	"context"
	"sync"
	"time"

	"basketReco/business/reco"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// ResultCache is a process-local TTL cache. It is built once at startup and
// handed to the recommendation service.
type ResultCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	now        func() time.Time
	maxEntries int
}

var _ reco.ResultCache = (*ResultCache)(nil)

const defaultMaxEntries = 10000

func NewResultCache(maxEntries int, now func() time.Time) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if now == nil {
		now = time.Now
	}
	return &ResultCache{
		entries:    make(map[string]entry),
		now:        now,
		maxEntries: maxEntries,
	}
}

func (c *ResultCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a copy of value. When full, expired entries are swept first and
// an arbitrary entry is evicted if that was not enough.
func (c *ResultCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	buf := append([]byte(nil), value...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = entry{value: buf, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResultCache) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	for k := range c.entries {
		delete(c.entries, k)
		return
	}
}
