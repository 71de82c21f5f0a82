package cache

import (
	"context"
	"sync"
	"time"

	"ipscope/internal/domain/models"
)

// MemoryCache is a concurrency-safe in-process analysis cache used when
// Redis is not available. Expired entries are treated as absent and evicted
// lazily on access or overwrite.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is swappable for TTL tests
	now func() time.Time
}

type memoryEntry struct {
	value     *models.CachedAnalysis
	expiresAt time.Time
}

// NewMemory creates a new in-process cache
func NewMemory() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// GetAnalysis retrieves a cached analysis entry for an IP
func (c *MemoryCache) GetAnalysis(_ context.Context, ip string) (*models.CachedAnalysis, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[ip]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a fresh write may have raced in.
		if cur, ok := c.entries[ip]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, ip)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// SetAnalysis caches an analysis entry for an IP with the given TTL
func (c *MemoryCache) SetAnalysis(_ context.Context, ip string, entry *models.CachedAnalysis, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[ip] = memoryEntry{
		value:     entry,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// DeleteAnalysis drops the cached entry for an IP
func (c *MemoryCache) DeleteAnalysis(_ context.Context, ip string) error {
	c.mu.Lock()
	delete(c.entries, ip)
	c.mu.Unlock()
	return nil
}

// Len returns the number of live entries
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	now := c.now()
	for _, entry := range c.entries {
		if now.Before(entry.expiresAt) {
			n++
		}
	}
	return n
}

// SetClock replaces the cache's time source. Test hook.
func (c *MemoryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
