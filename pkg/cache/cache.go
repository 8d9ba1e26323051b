// Package cache holds computed query responses for a short time so that
// identical queries arriving close together are not recomputed. Entries are
// disposable: a miss only costs latency.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store is the get/set abstraction used by the analytics service.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// TTLCache is a process-wide map with per-entry TTLs. Expired entries are
// evicted when read; there is no background sweep.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

// NewTTLCache constructs an empty TTLCache.
func NewTTLCache() *TTLCache {
	return &TTLCache{items: make(map[string]entry), now: time.Now}
}

// Get returns a cached value if it exists and has not expired.
func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Only drop the entry we saw; a concurrent Set may have replaced it.
		if cur, ok := c.items[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value for ttl, overwriting any previous entry.
func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// NoopCache always misses and ignores writes.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (NoopCache) Set(context.Context, string, []byte, time.Duration) {}

// Signature builds the cache key of a query: the endpoint followed by its
// non-empty parameters in name order.
func Signature(endpoint string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, k := range names {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
