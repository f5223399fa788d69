// SPDX-License-Identifier: MIT

package buffer

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/streamkit/playctl/internal/bus"
	"github.com/streamkit/playctl/internal/log"
	"github.com/streamkit/playctl/internal/memory"
	"github.com/streamkit/playctl/internal/metrics"
	"github.com/streamkit/playctl/internal/types"
)

// Manager folds memory and network signals into buffer configurations. The
// policy itself lives in Calculate; the manager only tracks the latest inputs
// and suppresses duplicate outputs.
type Manager struct {
	mu       sync.Mutex
	pressure memory.PressureLevel
	network  types.NetworkQuality
	current  Configuration
	logger   zerolog.Logger

	configs *bus.Broadcaster[Configuration]
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger overrides the component logger.
func WithManagerLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager assuming Normal pressure and Good network
// until told otherwise.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		pressure: memory.PressureNormal,
		network:  types.NetworkGood,
		logger:   log.WithComponent("buffer"),
		configs:  bus.New[Configuration]("buffer_config", 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.current = Calculate(m.pressure, m.network)
	return m
}

// Subscribe returns a subscription carrying configuration changes. Only
// configurations that differ from the previous one are delivered.
func (m *Manager) Subscribe() *bus.Subscription[Configuration] {
	return m.configs.Subscribe()
}

// Current returns the latest configuration.
func (m *Manager) Current() Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// UpdateMemoryState feeds a classified memory state into the policy.
func (m *Manager) UpdateMemoryState(st memory.State) {
	m.UpdateMemoryPressure(st.Pressure)
}

// UpdateMemoryPressure feeds a pressure level into the policy.
func (m *Manager) UpdateMemoryPressure(p memory.PressureLevel) {
	m.mu.Lock()
	m.pressure = p
	m.mu.Unlock()
	m.recalculate()
}

// UpdateNetworkQuality feeds a network quality level into the policy.
func (m *Manager) UpdateNetworkQuality(q types.NetworkQuality) {
	m.mu.Lock()
	m.network = q
	m.mu.Unlock()
	m.recalculate()
}

// Close tears down the broadcast channel.
func (m *Manager) Close() {
	m.configs.Close()
}

func (m *Manager) recalculate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := Calculate(m.pressure, m.network)
	if next == m.current {
		return
	}
	m.current = next

	metrics.SetBufferConfiguration(next.Strategy.String(), strategyNames(), next.ForwardBufferSeconds)

	m.logger.Info().
		Str(log.FieldEvent, "buffer.reconfigured").
		Str(log.FieldStrategy, next.Strategy.String()).
		Float64("forward_seconds", next.ForwardBufferSeconds).
		Str(log.FieldReason, next.Reason).
		Msg("buffer configuration changed")

	// Published under the lock so subscribers observe commit order.
	m.configs.Publish(next)
}

func strategyNames() []string {
	all := AllStrategies()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.String()
	}
	return names
}
