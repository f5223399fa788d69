// SPDX-License-Identifier: MIT

// Package cache provides stock segment caches that plug into the cleanup
// coordinator as ResourceCleaners.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/streamkit/playctl/internal/cleanup"
)

// entry is one cached segment with its expiration time.
type entry struct {
	data       []byte
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// SegmentCache is a thread-safe in-memory media segment cache with TTL
// support. It implements cleanup.ResourceCleaner so the coordinator can
// evict it under memory pressure.
type SegmentCache struct {
	mu      sync.RWMutex
	name    string
	prio    cleanup.Priority
	ttl     time.Duration
	entries map[string]*entry
	bytes   uint64

	janitorStop chan struct{}
	janitorOnce sync.Once
}

// NewSegmentCache creates a cache that expires segments after ttl and prunes
// expired entries every cleanupInterval (0 disables the janitor).
func NewSegmentCache(name string, prio cleanup.Priority, ttl, cleanupInterval time.Duration) *SegmentCache {
	c := &SegmentCache{
		name:    name,
		prio:    prio,
		ttl:     ttl,
		entries: make(map[string]*entry),
	}

	if cleanupInterval > 0 {
		c.janitorStop = make(chan struct{})
		go c.janitor(cleanupInterval)
	}
	return c
}

// Put stores a segment, replacing any previous value for the key.
func (c *SegmentCache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.bytes -= uint64(len(old.data))
	}
	c.entries[key] = &entry{
		data:       data,
		expiration: time.Now().Add(c.ttl),
	}
	c.bytes += uint64(len(data))
}

// Get retrieves a segment. Expired or missing keys return false.
func (c *SegmentCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.isExpired(time.Now()) {
		return nil, false
	}
	return e.data, true
}

// Len returns the number of cached segments, expired ones included.
func (c *SegmentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Name implements cleanup.ResourceCleaner.
func (c *SegmentCache) Name() string { return c.name }

// Priority implements cleanup.ResourceCleaner.
func (c *SegmentCache) Priority() cleanup.Priority { return c.prio }

// Estimate implements cleanup.ResourceCleaner: the bytes currently held.
func (c *SegmentCache) Estimate(_ context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytes, nil
}

// Cleanup implements cleanup.ResourceCleaner: drops every segment.
func (c *SegmentCache) Cleanup(_ context.Context) (cleanup.Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := cleanup.Stats{
		BytesFreed:   c.bytes,
		ItemsRemoved: len(c.entries),
	}
	c.entries = make(map[string]*entry)
	c.bytes = 0
	return stats, nil
}

// Stop halts the janitor goroutine.
func (c *SegmentCache) Stop() {
	if c.janitorStop == nil {
		return
	}
	c.janitorOnce.Do(func() { close(c.janitorStop) })
}

func (c *SegmentCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.janitorStop:
			return
		}
	}
}

func (c *SegmentCache) deleteExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.isExpired(now) {
			c.bytes -= uint64(len(e.data))
			delete(c.entries, key)
		}
	}
}

var _ cleanup.ResourceCleaner = (*SegmentCache)(nil)
