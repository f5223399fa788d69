// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/streamkit/playctl/internal/cleanup"
)

// DiskCache is a Badger-backed media segment cache for content that survives
// restarts (prefetched segments, artwork). It implements
// cleanup.ResourceCleaner so the coordinator can drop it under pressure.
type DiskCache struct {
	name string
	prio cleanup.Priority
	ttl  time.Duration
	db   *badger.DB
}

// OpenDiskCache opens (or creates) a Badger store at path.
func OpenDiskCache(name string, prio cleanup.Priority, path string, ttl time.Duration) (*DiskCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open disk cache at %s: %w", path, err)
	}
	return &DiskCache{name: name, prio: prio, ttl: ttl, db: db}, nil
}

// Put stores a segment with the cache TTL.
func (c *DiskCache) Put(key string, data []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Get retrieves a segment. Missing or expired keys return false.
func (c *DiskCache) Get(key string) ([]byte, bool, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Name implements cleanup.ResourceCleaner.
func (c *DiskCache) Name() string { return c.name }

// Priority implements cleanup.ResourceCleaner.
func (c *DiskCache) Priority() cleanup.Priority { return c.prio }

// Estimate implements cleanup.ResourceCleaner: on-disk size of the store.
func (c *DiskCache) Estimate(_ context.Context) (uint64, error) {
	lsm, vlog := c.db.Size()
	total := lsm + vlog
	if total < 0 {
		total = 0
	}
	return uint64(total), nil
}

// Cleanup implements cleanup.ResourceCleaner: drops every key.
func (c *DiskCache) Cleanup(ctx context.Context) (cleanup.Stats, error) {
	size, _ := c.Estimate(ctx)

	items := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			items++
		}
		return nil
	})
	if err != nil {
		return cleanup.Stats{}, fmt.Errorf("count disk cache entries: %w", err)
	}

	if err := c.db.DropAll(); err != nil {
		return cleanup.Stats{}, fmt.Errorf("drop disk cache: %w", err)
	}
	return cleanup.Stats{BytesFreed: size, ItemsRemoved: items}, nil
}

// Close releases the underlying store.
func (c *DiskCache) Close() error {
	return c.db.Close()
}

var _ cleanup.ResourceCleaner = (*DiskCache)(nil)
