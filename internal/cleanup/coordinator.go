// SPDX-License-Identifier: MIT

package cleanup

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamkit/playctl/internal/bus"
	"github.com/streamkit/playctl/internal/log"
	"github.com/streamkit/playctl/internal/memory"
	"github.com/streamkit/playctl/internal/metrics"
)

// Trigger labels what started a cleanup pass.
const (
	TriggerManual         = "manual"
	TriggerMemoryWarning  = "memory_warning"
	TriggerMemoryCritical = "memory_critical"
)

// Coordinator holds registered cleaners sorted by descending priority and
// runs them sequentially. Cleaners are awaited one at a time; a slow cleaner
// delays the pass, a failing one is reported and skipped past.
type Coordinator struct {
	mu       sync.Mutex
	cleaners []ResourceCleaner
	logger   zerolog.Logger

	monitor *memory.Monitor

	results *bus.Broadcaster[Result]

	autoEnabled bool
	autoSub     *bus.Subscription[memory.State]
	autoDone    chan struct{}
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger overrides the component logger.
func WithCoordinatorLogger(l zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a coordinator bound to the given memory monitor.
// The monitor may be nil if auto cleanup is never enabled.
func NewCoordinator(monitor *memory.Monitor, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		logger:  log.WithComponent("cleanup"),
		monitor: monitor,
		results: bus.New[Result]("cleanup_result", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a cleaner and re-sorts the list by descending priority.
// Registration order breaks ties.
func (c *Coordinator) Register(cleaner ResourceCleaner) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleaners = append(c.cleaners, cleaner)
	sort.SliceStable(c.cleaners, func(i, j int) bool {
		return c.cleaners[i].Priority().Rank() > c.cleaners[j].Priority().Rank()
	})

	c.logger.Debug().
		Str(log.FieldEvent, "cleanup.registered").
		Str(log.FieldCleaner, cleaner.Name()).
		Str(log.FieldPriority, cleaner.Priority().String()).
		Msg("cleaner registered")
}

// Unregister removes the cleaner with the given name, if present.
func (c *Coordinator) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.cleaners[:0]
	for _, cl := range c.cleaners {
		if cl.Name() != name {
			kept = append(kept, cl)
		}
	}
	c.cleaners = kept
}

// Cleaners returns the registered cleaners in invocation order.
func (c *Coordinator) Cleaners() []ResourceCleaner {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ResourceCleaner, len(c.cleaners))
	copy(out, c.cleaners)
	return out
}

// Subscribe returns a subscription carrying every cleaner result, regardless
// of whether the pass was manual or automatic.
func (c *Coordinator) Subscribe() *bus.Subscription[Result] {
	return c.results.Subscribe()
}

// EstimateTotal sums the reclaimable bytes across all cleaners. Estimate
// failures count as zero.
func (c *Coordinator) EstimateTotal(ctx context.Context) uint64 {
	var total uint64
	for _, cl := range c.Cleaners() {
		if n, err := cl.Estimate(ctx); err == nil {
			total += n
		}
	}
	return total
}

// CleanupAll runs every cleaner in descending priority order.
func (c *Coordinator) CleanupAll(ctx context.Context) []Result {
	return c.run(ctx, c.Cleaners(), TriggerManual)
}

// CleanupUpTo runs only cleaners whose priority is at or below the ceiling,
// still in descending priority order.
func (c *Coordinator) CleanupUpTo(ctx context.Context, ceiling Priority) []Result {
	return c.run(ctx, c.eligibleUpTo(ceiling), TriggerManual)
}

func (c *Coordinator) eligibleUpTo(ceiling Priority) []ResourceCleaner {
	var eligible []ResourceCleaner
	for _, cl := range c.Cleaners() {
		if cl.Priority().Rank() <= ceiling.Rank() {
			eligible = append(eligible, cl)
		}
	}
	return eligible
}

// EnableAutoCleanup subscribes to the memory monitor and reacts to pressure:
// Critical runs everything, Warning runs low and medium cleaners, Normal
// does nothing. Enabling twice is a no-op.
func (c *Coordinator) EnableAutoCleanup() {
	c.mu.Lock()
	if c.autoEnabled || c.monitor == nil {
		c.mu.Unlock()
		return
	}
	sub := c.monitor.Subscribe()
	done := make(chan struct{})
	c.autoEnabled = true
	c.autoSub = sub
	c.autoDone = done
	c.mu.Unlock()

	c.logger.Info().
		Str(log.FieldEvent, "cleanup.auto_enabled").
		Msg("automatic cleanup enabled")

	go c.autoLoop(sub, done)
}

// DisableAutoCleanup cancels the subscription and stops the underlying
// monitor. Disabling while not enabled is a no-op.
func (c *Coordinator) DisableAutoCleanup() {
	c.mu.Lock()
	if !c.autoEnabled {
		c.mu.Unlock()
		return
	}
	sub, done := c.autoSub, c.autoDone
	c.autoEnabled = false
	c.autoSub = nil
	c.autoDone = nil
	c.mu.Unlock()

	sub.Close()
	<-done
	c.monitor.StopMonitoring()

	c.logger.Info().
		Str(log.FieldEvent, "cleanup.auto_disabled").
		Msg("automatic cleanup disabled")
}

// AutoCleanupEnabled reports whether the pressure subscription is active.
func (c *Coordinator) AutoCleanupEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoEnabled
}

// Close disables auto cleanup and tears down the results channel.
func (c *Coordinator) Close() {
	c.DisableAutoCleanup()
	c.results.Close()
}

func (c *Coordinator) autoLoop(sub *bus.Subscription[memory.State], done chan struct{}) {
	defer close(done)

	for st := range sub.C() {
		switch st.Pressure {
		case memory.PressureCritical:
			c.logger.Warn().
				Str(log.FieldEvent, "cleanup.auto_triggered").
				Str(log.FieldPressure, st.Pressure.String()).
				Msg("critical memory pressure, cleaning everything")
			c.run(context.Background(), c.Cleaners(), TriggerMemoryCritical)

		case memory.PressureWarning:
			eligible := c.eligibleUpTo(PriorityMedium)
			if len(eligible) == 0 {
				continue
			}
			c.logger.Info().
				Str(log.FieldEvent, "cleanup.auto_triggered").
				Str(log.FieldPressure, st.Pressure.String()).
				Msg("memory pressure warning, cleaning low and medium caches")
			c.run(context.Background(), eligible, TriggerMemoryWarning)
		}
	}
}

// run invokes the given cleaners sequentially. Every cleaner is attempted
// regardless of prior failures; each result is broadcast as it completes.
func (c *Coordinator) run(ctx context.Context, cleaners []ResourceCleaner, trigger string) []Result {
	if len(cleaners) == 0 {
		return nil
	}

	metrics.RecordCleanupRun(trigger)

	results := make([]Result, 0, len(cleaners))
	for _, cl := range cleaners {
		res := Result{
			Name:      cl.Name(),
			Priority:  cl.Priority(),
			Timestamp: time.Now(),
		}

		stats, err := cl.Cleanup(ctx)
		if err != nil {
			res.Success = false
			res.Error = err.Error()
			c.logger.Warn().
				Err(err).
				Str(log.FieldEvent, "cleanup.cleaner_failed").
				Str(log.FieldCleaner, cl.Name()).
				Msg("cleaner failed, continuing with remaining cleaners")
		} else {
			res.Success = true
			res.BytesFreed = stats.BytesFreed
			res.ItemsRemoved = stats.ItemsRemoved
			c.logger.Info().
				Str(log.FieldEvent, "cleanup.cleaner_done").
				Str(log.FieldCleaner, cl.Name()).
				Uint64(log.FieldBytesFreed, stats.BytesFreed).
				Int("items_removed", stats.ItemsRemoved).
				Msg("cleaner finished")
		}

		metrics.RecordCleanupResult(cl.Name(), res.Success, res.BytesFreed)
		c.results.Publish(res)
		results = append(results, res)
	}
	return results
}
