// SPDX-License-Identifier: MIT

package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/streamkit/playctl/internal/memory"
)

// fakeCleaner records its invocations.
type fakeCleaner struct {
	mu       sync.Mutex
	name     string
	priority Priority
	bytes    uint64
	err      error
	calls    int
}

func (f *fakeCleaner) Name() string       { return f.name }
func (f *fakeCleaner) Priority() Priority { return f.priority }

func (f *fakeCleaner) Estimate(context.Context) (uint64, error) {
	return f.bytes, nil
}

func (f *fakeCleaner) Cleanup(context.Context) (Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Stats{}, f.err
	}
	return Stats{BytesFreed: f.bytes, ItemsRemoved: 1}, nil
}

func (f *fakeCleaner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCoordinator_CleanupAllRunsInDescendingPriorityOrder(t *testing.T) {
	c := NewCoordinator(nil)
	defer c.Close()

	low := &fakeCleaner{name: "low", priority: PriorityLow, bytes: 10}
	med := &fakeCleaner{name: "med", priority: PriorityMedium, bytes: 20}
	high := &fakeCleaner{name: "high", priority: PriorityHigh, bytes: 30}

	// Registered lowest first; invocation order must still be high first.
	c.Register(low)
	c.Register(med)
	c.Register(high)

	results := c.CleanupAll(context.Background())
	require.Len(t, results, 3)
	assert.Equal(t, "high", results[0].Name)
	assert.Equal(t, "med", results[1].Name)
	assert.Equal(t, "low", results[2].Name)

	for _, res := range results {
		assert.True(t, res.Success)
	}
}

func TestCoordinator_CleanupUpToMediumSkipsHighPriority(t *testing.T) {
	c := NewCoordinator(nil)
	defer c.Close()

	low := &fakeCleaner{name: "low", priority: PriorityLow}
	med := &fakeCleaner{name: "med", priority: PriorityMedium}
	high := &fakeCleaner{name: "high", priority: PriorityHigh}
	c.Register(high)
	c.Register(low)
	c.Register(med)

	results := c.CleanupUpTo(context.Background(), PriorityMedium)
	require.Len(t, results, 2)
	assert.Equal(t, "med", results[0].Name)
	assert.Equal(t, "low", results[1].Name)

	assert.Equal(t, 1, low.callCount())
	assert.Equal(t, 1, med.callCount())
	assert.Equal(t, 0, high.callCount())
}

func TestCoordinator_FailingCleanerDoesNotAbortPass(t *testing.T) {
	c := NewCoordinator(nil)
	defer c.Close()

	failing := &fakeCleaner{name: "failing", priority: PriorityHigh, err: errors.New("disk gone")}
	ok := &fakeCleaner{name: "ok", priority: PriorityLow, bytes: 5}
	c.Register(failing)
	c.Register(ok)

	results := c.CleanupAll(context.Background())
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.Equal(t, "disk gone", results[0].Error)
	assert.True(t, results[1].Success)
	assert.Equal(t, uint64(5), results[1].BytesFreed)
	assert.Equal(t, 1, ok.callCount())
}

func TestCoordinator_ResultsBroadcastToSubscribers(t *testing.T) {
	c := NewCoordinator(nil)
	defer c.Close()

	c.Register(&fakeCleaner{name: "a", priority: PriorityLow, bytes: 7})

	sub := c.Subscribe()
	defer sub.Close()

	c.CleanupAll(context.Background())

	select {
	case res := <-sub.C():
		assert.Equal(t, "a", res.Name)
		assert.Equal(t, uint64(7), res.BytesFreed)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cleanup result")
	}
}

func TestCoordinator_EstimateTotal(t *testing.T) {
	c := NewCoordinator(nil)
	defer c.Close()

	c.Register(&fakeCleaner{name: "a", priority: PriorityLow, bytes: 100})
	c.Register(&fakeCleaner{name: "b", priority: PriorityHigh, bytes: 250})

	assert.Equal(t, uint64(350), c.EstimateTotal(context.Background()))
}

func TestCoordinator_AutoCleanupReactsToPressure(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	sample := memory.Sample{AvailableBytes: 2 << 30, TotalBytes: 8 << 30, UsedBytes: 6 << 30}
	reader := func() (memory.Sample, error) {
		mu.Lock()
		defer mu.Unlock()
		return sample, nil
	}

	monitor := memory.NewMonitor(reader, memory.DefaultThresholds(),
		memory.WithPollInterval(10*time.Millisecond))

	c := NewCoordinator(monitor)
	low := &fakeCleaner{name: "low", priority: PriorityLow}
	high := &fakeCleaner{name: "high", priority: PriorityHigh}
	c.Register(low)
	c.Register(high)

	c.EnableAutoCleanup()
	c.EnableAutoCleanup() // second enable is a no-op
	monitor.StartMonitoring()

	// Warning pressure: low runs, high must not.
	mu.Lock()
	sample.AvailableBytes = 80 << 20
	mu.Unlock()
	require.Eventually(t, func() bool { return low.callCount() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, high.callCount())

	// Critical pressure: everything runs.
	mu.Lock()
	sample.AvailableBytes = 10 << 20
	mu.Unlock()
	require.Eventually(t, func() bool { return high.callCount() >= 1 }, time.Second, 5*time.Millisecond)

	// Disable stops the subscription and the monitor.
	c.DisableAutoCleanup()
	assert.False(t, c.AutoCleanupEnabled())
	assert.False(t, monitor.Running())
	c.DisableAutoCleanup() // second disable is a no-op

	c.Close()
	monitor.Close()
}

func TestCoordinator_WarningWithNoEligibleCleanersDoesNothing(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	sample := memory.Sample{AvailableBytes: 80 << 20, TotalBytes: 8 << 30}
	reader := func() (memory.Sample, error) {
		mu.Lock()
		defer mu.Unlock()
		return sample, nil
	}

	monitor := memory.NewMonitor(reader, memory.DefaultThresholds(),
		memory.WithPollInterval(10*time.Millisecond))

	c := NewCoordinator(monitor)
	high := &fakeCleaner{name: "high", priority: PriorityHigh}
	c.Register(high)

	sub := c.Subscribe()
	defer sub.Close()

	c.EnableAutoCleanup()
	monitor.StartMonitoring()

	select {
	case res := <-sub.C():
		t.Fatalf("unexpected cleanup result %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 0, high.callCount())

	c.Close()
	monitor.Close()
}

func TestPriority_Ordering(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	assert.False(t, Priority("urgent").IsValid())
}
