// Package cache provides the stores for temporary reset credentials.
package cache

import (
	"context"
	"sync"
	"time"
)

// timer is the part of *time.Timer the cache needs.
type timer interface {
	Stop() bool
}

// scheduleFunc runs f once after d, like time.AfterFunc.
type scheduleFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

type memoryEntry struct {
	hash  string
	gen   uint64
	timer timer
}

// MemoryCache keeps temporary credentials in process memory.
// Every entry is removed by its own timer once the lifetime elapses.
// A timer belonging to a replaced entry never removes the replacement.
type MemoryCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	entries   map[string]*memoryEntry
	gen       uint64
	afterFunc scheduleFunc
}

// NewMemoryCache creates an in-process cache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return newMemoryCache(ttl, realAfterFunc)
}

func newMemoryCache(ttl time.Duration, afterFunc scheduleFunc) *MemoryCache {
	return &MemoryCache{
		ttl:       ttl,
		entries:   make(map[string]*memoryEntry),
		afterFunc: afterFunc,
	}
}

// Put stores hash for email and restarts its lifetime.
func (c *MemoryCache) Put(_ context.Context, email, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[email]; ok {
		old.timer.Stop()
	}

	c.gen++
	gen := c.gen
	entry := &memoryEntry{hash: hash, gen: gen}
	c.entries[email] = entry
	entry.timer = c.afterFunc(c.ttl, func() { c.expire(email, gen) })

	return nil
}

// Get returns the live hash for email.
func (c *MemoryCache) Get(_ context.Context, email string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[email]
	if !ok {
		return "", false, nil
	}

	return entry.hash, true, nil
}

// Remove drops the entry for email and cancels its timer.
func (c *MemoryCache) Remove(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[email]; ok {
		entry.timer.Stop()
		delete(c.entries, email)
	}

	return nil
}

// Close cancels all pending timers and empties the cache.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for email, entry := range c.entries {
		entry.timer.Stop()
		delete(c.entries, email)
	}

	return nil
}

func (c *MemoryCache) expire(email string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[email]; ok && entry.gen == gen {
		delete(c.entries, email)
	}
}
