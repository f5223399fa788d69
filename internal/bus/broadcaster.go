// SPDX-License-Identifier: MIT

// Package bus provides an in-process fan-out broadcaster with buffered,
// drop-on-full delivery. Producers never block on slow subscribers.
package bus

import (
	"sync"

	"github.com/streamkit/playctl/internal/metrics"
)

const defaultBufferSize = 64

// Broadcaster fans values out to any number of subscribers. Each subscriber
// owns a buffered channel; when a subscriber's buffer is full the value is
// dropped for that subscriber only and counted in metrics.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	topic  string
	size   int
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// Subscription is one subscriber's handle on a Broadcaster.
type Subscription[T any] struct {
	b  *Broadcaster[T]
	ch chan T

	once sync.Once
}

// New creates a Broadcaster for the given topic. bufferSize <= 0 selects the
// default per-subscriber buffer.
func New[T any](topic string, bufferSize int) *Broadcaster[T] {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Broadcaster[T]{
		topic: topic,
		size:  bufferSize,
		subs:  make(map[*Subscription[T]]struct{}),
	}
}

// Publish delivers v to every live subscriber without blocking. Values are
// dropped per-subscriber when that subscriber's buffer is full.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for sub := range b.subs {
		select {
		case sub.ch <- v:
		default:
			metrics.IncBusDrop(b.topic)
		}
	}
}

// Subscribe registers a new subscriber. The caller must Close the
// subscription when done, or values pile up until the buffer drops them.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{b: b, ch: make(chan T, b.size)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close tears down the broadcaster and closes all subscriber channels.
// Publish after Close is a no-op.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.once.Do(func() { close(sub.ch) })
		delete(b.subs, sub)
	}
}

// C returns the subscription's receive channel. It is closed when either the
// subscription or the broadcaster is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close detaches the subscription and closes its channel. Safe to call twice.
func (s *Subscription[T]) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if _, ok := s.b.subs[s]; !ok {
		return
	}
	delete(s.b.subs, s)
	s.once.Do(func() { close(s.ch) })
}
