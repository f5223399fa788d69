// SPDX-License-Identifier: MIT

package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := New[int]("test", 4)
	defer b.Close()

	a := b.Subscribe()
	c := b.Subscribe()
	defer a.Close()
	defer c.Close()

	require.Equal(t, 2, b.SubscriberCount())

	b.Publish(7)
	b.Publish(8)

	for _, sub := range []*Subscription[int]{a, c} {
		assert.Equal(t, 7, <-sub.C())
		assert.Equal(t, 8, <-sub.C())
	}
}

func TestBroadcaster_DropOnFullDoesNotBlock(t *testing.T) {
	b := New[int]("test", 2)
	defer b.Close()

	slow := b.Subscribe()
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	// The slow subscriber keeps the oldest buffered values.
	assert.Equal(t, 0, <-slow.C())
	assert.Equal(t, 1, <-slow.C())
}

func TestBroadcaster_SlowSubscriberDoesNotStarveOthers(t *testing.T) {
	b := New[int]("test", 1)
	defer b.Close()

	slow := b.Subscribe()
	fast := b.Subscribe()
	defer slow.Close()
	defer fast.Close()

	b.Publish(1) // fills both buffers
	b.Publish(2) // dropped for slow unless drained

	assert.Equal(t, 1, <-fast.C())
	b.Publish(3)
	assert.Equal(t, 3, <-fast.C())
}

func TestSubscription_CloseDetaches(t *testing.T) {
	b := New[string]("test", 0)
	defer b.Close()

	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	sub.Close()
	sub.Close() // idempotent
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-sub.C()
	assert.False(t, open)
}

func TestBroadcaster_CloseClosesAllChannels(t *testing.T) {
	b := New[string]("test", 0)

	a := b.Subscribe()
	c := b.Subscribe()

	b.Close()
	b.Close() // idempotent

	// Publish after close is a no-op.
	b.Publish("after close")

	_, open := <-a.C()
	assert.False(t, open)
	_, open = <-c.C()
	assert.False(t, open)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroadcaster_SubscribeAfterCloseYieldsClosedChannel(t *testing.T) {
	b := New[int]("test", 0)
	b.Close()

	sub := b.Subscribe()
	_, open := <-sub.C()
	assert.False(t, open)
}

func TestBroadcaster_ConcurrentPublishAndSubscribe(t *testing.T) {
	b := New[int]("test", 256)
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish(j)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := b.Subscribe()
			defer sub.Close()
			for j := 0; j < 10; j++ {
				select {
				case <-sub.C():
				case <-time.After(time.Second):
					return
				}
			}
		}()
	}
	wg.Wait()
}
