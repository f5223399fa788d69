// SPDX-License-Identifier: MIT

package perf

import (
	"sync"
	"time"

	"github.com/streamkit/playctl/internal/metrics"
)

// rollingWindow is how far back EventsInLastMinute looks.
const rollingWindow = time.Minute

// BufferingEvent is one completed buffering interval.
type BufferingEvent struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// BufferingTracker accumulates buffering intervals. Start/end calls are
// idempotent against re-entry: a second start while buffering is a no-op,
// and an end without a start is ignored. Orphan calls contribute nothing to
// the totals.
type BufferingTracker struct {
	mu    sync.Mutex
	clock clock

	bufferingSince *time.Time
	totalDuration  time.Duration
	count          int
	recentEnds     []time.Time
}

// NewBufferingTracker creates an empty tracker.
func NewBufferingTracker() *BufferingTracker {
	return &BufferingTracker{clock: realClock{}}
}

func newBufferingTrackerWithClock(c clock) *BufferingTracker {
	return &BufferingTracker{clock: c}
}

// BufferingStarted marks the beginning of a stall. Returns false when a
// stall is already open.
func (t *BufferingTracker) BufferingStarted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bufferingSince != nil {
		return false
	}
	now := t.clock.Now()
	t.bufferingSince = &now
	return true
}

// BufferingEnded closes the open stall and returns the completed event.
// Without an open stall it returns false and records nothing.
func (t *BufferingTracker) BufferingEnded() (BufferingEvent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bufferingSince == nil {
		return BufferingEvent{}, false
	}

	now := t.clock.Now()
	ev := BufferingEvent{
		StartedAt: *t.bufferingSince,
		Duration:  now.Sub(*t.bufferingSince),
	}
	t.bufferingSince = nil
	t.totalDuration += ev.Duration
	t.count++
	t.recentEnds = append(t.recentEnds, now)
	t.pruneLocked(now)

	metrics.RecordBufferingInterval(ev.Duration.Seconds())
	return ev, true
}

// IsBuffering reports whether a stall is currently open.
func (t *BufferingTracker) IsBuffering() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bufferingSince != nil
}

// TotalDuration returns the sum of all completed interval durations.
func (t *BufferingTracker) TotalDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalDuration
}

// Count returns the number of completed intervals.
func (t *BufferingTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// EventsInLastMinute returns how many intervals completed within the rolling
// window.
func (t *BufferingTracker) EventsInLastMinute() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked(t.clock.Now())
	return len(t.recentEnds)
}

// Reset clears all accumulated state for a new session.
func (t *BufferingTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bufferingSince = nil
	t.totalDuration = 0
	t.count = 0
	t.recentEnds = nil
}

func (t *BufferingTracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-rollingWindow)
	kept := t.recentEnds[:0]
	for _, ts := range t.recentEnds {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	t.recentEnds = kept
}
