// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamkit/playctl/internal/cleanup"
)

func TestSegmentCache_PutGet(t *testing.T) {
	c := NewSegmentCache("segments", cleanup.PriorityHigh, time.Minute, 0)
	defer c.Stop()

	c.Put("seg-1", []byte("abc"))
	c.Put("seg-2", []byte("defgh"))

	data, ok := c.Get("seg-1")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), data)

	_, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestSegmentCache_ReplaceAdjustsByteCount(t *testing.T) {
	c := NewSegmentCache("segments", cleanup.PriorityHigh, time.Minute, 0)
	defer c.Stop()

	c.Put("seg", make([]byte, 100))
	c.Put("seg", make([]byte, 40))

	size, err := c.Estimate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(40), size)
	assert.Equal(t, 1, c.Len())
}

func TestSegmentCache_ExpiredEntriesInvisible(t *testing.T) {
	c := NewSegmentCache("segments", cleanup.PriorityHigh, 10*time.Millisecond, 0)
	defer c.Stop()

	c.Put("seg", []byte("abc"))
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("seg")
	assert.False(t, ok)
}

func TestSegmentCache_JanitorPrunes(t *testing.T) {
	c := NewSegmentCache("segments", cleanup.PriorityHigh, 10*time.Millisecond, 10*time.Millisecond)
	defer c.Stop()

	c.Put("seg", []byte("abc"))
	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)

	size, err := c.Estimate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), size)
}

func TestSegmentCache_CleanupDropsEverything(t *testing.T) {
	c := NewSegmentCache("segments", cleanup.PriorityHigh, time.Minute, 0)
	defer c.Stop()

	c.Put("a", make([]byte, 10))
	c.Put("b", make([]byte, 20))

	stats, err := c.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(30), stats.BytesFreed)
	assert.Equal(t, 2, stats.ItemsRemoved)
	assert.Equal(t, 0, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestSegmentCache_ImplementsResourceCleaner(t *testing.T) {
	c := NewSegmentCache("artwork", cleanup.PriorityLow, time.Minute, 0)
	defer c.Stop()

	assert.Equal(t, "artwork", c.Name())
	assert.Equal(t, cleanup.PriorityLow, c.Priority())
}
