// Package cache provides TTL caching for imgix API responses, with in-memory
// and Redis backends behind a common interface.
package cache

import (
	"sync"
	"time"
)

// Cache is the interface shared by the memory and Redis backends.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
}

// MemoryCache is an in-process cache with per-entry expiry and a background
// sweep.
type MemoryCache struct {
	mu     sync.RWMutex
	items  map[string]memoryEntry
	ttl    time.Duration
	stopCh chan struct{}
}

type memoryEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewMemory creates an in-memory cache with the given default TTL.
func NewMemory(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:  make(map[string]memoryEntry),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

func (c *MemoryCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]memoryEntry)
}

// Stop terminates the background sweep goroutine.
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}

func (c *MemoryCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
		}
	}
}

var _ Cache = (*MemoryCache)(nil)
