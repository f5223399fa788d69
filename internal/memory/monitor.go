// SPDX-License-Identifier: MIT

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamkit/playctl/internal/bus"
	"github.com/streamkit/playctl/internal/log"
	"github.com/streamkit/playctl/internal/metrics"
)

// DefaultPollInterval is how often the monitor samples memory while started.
const DefaultPollInterval = 2 * time.Second

// ReaderFunc supplies raw memory samples. The monitor never calls OS APIs
// directly; the reader is injected by the embedding application.
type ReaderFunc func() (Sample, error)

// Monitor polls a memory reader at a fixed interval, classifies each sample
// and broadcasts pressure changes. Consecutive samples with the same pressure
// level produce a single notification.
type Monitor struct {
	mu         sync.Mutex
	reader     ReaderFunc
	thresholds Thresholds
	interval   time.Duration
	logger     zerolog.Logger

	states *bus.Broadcaster[State]

	last    *State
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithPollInterval overrides the default sampling interval.
func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = l }
}

// NewMonitor creates a stopped monitor around the given reader.
func NewMonitor(reader ReaderFunc, thresholds Thresholds, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		reader:     reader,
		thresholds: thresholds,
		interval:   DefaultPollInterval,
		logger:     log.WithComponent("memory"),
		states:     bus.New[State]("memory_state", 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe returns a subscription carrying classified memory states.
// Only pressure-level changes are delivered.
func (m *Monitor) Subscribe() *bus.Subscription[State] {
	return m.states.Subscribe()
}

// SetThresholds replaces the classification boundaries; the next sample is
// classified against the new values.
func (m *Monitor) SetThresholds(t Thresholds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = t
}

// StartMonitoring begins the poll loop. Calling it while running is a no-op.
func (m *Monitor) StartMonitoring() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	m.logger.Info().
		Str(log.FieldEvent, "monitor.start").
		Dur("interval", m.interval).
		Msg("memory monitoring started")

	go m.poll(ctx, m.done)
}

// StopMonitoring cancels the poll loop and waits for it to exit. Calling it
// while stopped is a no-op.
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.running = false
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	cancel()
	<-done

	m.logger.Info().
		Str(log.FieldEvent, "monitor.stop").
		Msg("memory monitoring stopped")
}

// Running reports whether the poll loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// CurrentMemoryState returns the last published state, or takes a fresh
// sample when the poll loop is not active.
func (m *Monitor) CurrentMemoryState() (State, error) {
	m.mu.Lock()
	if m.running && m.last != nil {
		st := *m.last
		m.mu.Unlock()
		return st, nil
	}
	reader, thresholds := m.reader, m.thresholds
	m.mu.Unlock()

	sample, err := reader()
	if err != nil {
		return State{}, err
	}
	return NewState(sample, thresholds, time.Now()), nil
}

// Close stops monitoring and tears down the broadcast channel.
func (m *Monitor) Close() {
	m.StopMonitoring()
	m.states.Close()
}

func (m *Monitor) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Take one sample immediately so subscribers get a baseline.
	m.sample()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) sample() {
	m.mu.Lock()
	reader, thresholds := m.reader, m.thresholds
	m.mu.Unlock()

	raw, err := reader()
	if err != nil {
		m.logger.Warn().
			Err(err).
			Str(log.FieldEvent, "monitor.sample_failed").
			Msg("memory sample failed")
		return
	}

	st := NewState(raw, thresholds, time.Now())

	m.mu.Lock()
	changed := m.last == nil || m.last.Pressure != st.Pressure
	m.last = &st
	m.mu.Unlock()

	metrics.SetMemoryPressure(st.Pressure.Rank(), st.AvailableBytes)

	if !changed {
		return
	}

	m.logger.Info().
		Str(log.FieldEvent, "monitor.pressure_changed").
		Str(log.FieldPressure, st.Pressure.String()).
		Uint64("available_bytes", st.AvailableBytes).
		Msg("memory pressure changed")

	m.states.Publish(st)
}
