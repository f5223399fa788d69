// SPDX-License-Identifier: MIT

package perf

import (
	"sync"
	"time"

	"github.com/streamkit/playctl/internal/metrics"
)

// StartupTimeTracker measures time-to-first-frame. Both record calls are
// idempotent: the first write wins and later calls are ignored.
type StartupTimeTracker struct {
	mu    sync.Mutex
	clock clock

	loadStart  *time.Time
	firstFrame *time.Time
}

// NewStartupTimeTracker creates an empty tracker.
func NewStartupTimeTracker() *StartupTimeTracker {
	return &StartupTimeTracker{clock: realClock{}}
}

func newStartupTimeTrackerWithClock(c clock) *StartupTimeTracker {
	return &StartupTimeTracker{clock: c}
}

// RecordLoadStart marks when loading began. First write wins.
func (t *StartupTimeTracker) RecordLoadStart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loadStart != nil {
		return
	}
	now := t.clock.Now()
	t.loadStart = &now
}

// RecordFirstFrame marks when the first frame rendered. First write wins;
// ignored entirely if load start was never recorded.
func (t *StartupTimeTracker) RecordFirstFrame() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loadStart == nil || t.firstFrame != nil {
		return
	}
	now := t.clock.Now()
	t.firstFrame = &now

	metrics.RecordStartupTime(now.Sub(*t.loadStart).Seconds())
}

// TimeToFirstFrame returns the measured startup time once both marks exist.
func (t *StartupTimeTracker) TimeToFirstFrame() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loadStart == nil || t.firstFrame == nil {
		return 0, false
	}
	return t.firstFrame.Sub(*t.loadStart), true
}

// Reset clears both marks for a new session.
func (t *StartupTimeTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadStart = nil
	t.firstFrame = nil
}
