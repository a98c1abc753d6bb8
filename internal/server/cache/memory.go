package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryCache is a process-local Cache used in tests and when no Redis URL is
// configured. Entries expire lazily on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	indexes map[string]map[string]struct{}

	// now is a seam for expiry tests.
	now func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		indexes: make(map[string]map[string]struct{}),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string, dest any) bool {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false
	}

	return json.Unmarshal(entry.data, dest) == nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) SetIndexed(ctx context.Context, index, key string, value any, ttl time.Duration) {
	c.Set(ctx, key, value, ttl)

	c.mu.Lock()
	if c.indexes[index] == nil {
		c.indexes[index] = make(map[string]struct{})
	}
	c.indexes[index][key] = struct{}{}
	c.mu.Unlock()
}

func (c *MemoryCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *MemoryCache) InvalidateIndex(_ context.Context, index string) {
	c.mu.Lock()
	for key := range c.indexes[index] {
		delete(c.entries, key)
	}
	delete(c.indexes, index)
	c.mu.Unlock()
}

func (c *MemoryCache) Ping(context.Context) error {
	return nil
}
