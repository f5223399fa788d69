// SPDX-License-Identifier: MIT

// Package buffer decides how much forward buffer playback should hold given
// memory pressure and network quality.
package buffer

import (
	"encoding/json"
	"fmt"

	"github.com/streamkit/playctl/internal/memory"
	"github.com/streamkit/playctl/internal/types"
)

// Strategy is the ordered buffering aggressiveness.
// Minimal < Conservative < Balanced < Aggressive.
type Strategy string

const (
	StrategyMinimal      Strategy = "minimal"
	StrategyConservative Strategy = "conservative"
	StrategyBalanced     Strategy = "balanced"
	StrategyAggressive   Strategy = "aggressive"
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	return string(s)
}

// IsValid checks whether the strategy is one of the defined values.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyMinimal, StrategyConservative, StrategyBalanced, StrategyAggressive:
		return true
	default:
		return false
	}
}

// Rank returns the aggressiveness rank, ascending from Minimal.
func (s Strategy) Rank() int {
	switch s {
	case StrategyMinimal:
		return 0
	case StrategyConservative:
		return 1
	case StrategyBalanced:
		return 2
	case StrategyAggressive:
		return 3
	default:
		return -1
	}
}

// MarshalJSON implements json.Marshaler.
func (s Strategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Strategy) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	st := Strategy(str)
	if !st.IsValid() {
		return fmt.Errorf("invalid buffer strategy: %q", str)
	}
	*s = st
	return nil
}

// AllStrategies returns all defined strategies in ascending aggressiveness.
func AllStrategies() []Strategy {
	return []Strategy{StrategyMinimal, StrategyConservative, StrategyBalanced, StrategyAggressive}
}

// Forward buffer durations per strategy, in seconds.
const (
	minimalForwardSeconds      = 2.0
	conservativeForwardSeconds = 5.0
	balancedForwardSeconds     = 10.0
	aggressiveForwardSeconds   = 30.0
)

// Configuration is the buffer policy output consumed by the media pipeline.
type Configuration struct {
	Strategy             Strategy `json:"strategy"`
	ForwardBufferSeconds float64  `json:"forward_buffer_seconds"`
	Reason               string   `json:"reason"`
}

// Calculate is the pure buffering policy. Memory pressure dominates network
// quality: Critical always yields Minimal and Warning always yields
// Conservative; only Normal pressure defers to the network.
func Calculate(pressure memory.PressureLevel, network types.NetworkQuality) Configuration {
	switch pressure {
	case memory.PressureCritical:
		return Configuration{
			Strategy:             StrategyMinimal,
			ForwardBufferSeconds: minimalForwardSeconds,
			Reason:               "critical memory pressure",
		}
	case memory.PressureWarning:
		return Configuration{
			Strategy:             StrategyConservative,
			ForwardBufferSeconds: conservativeForwardSeconds,
			Reason:               "memory pressure warning",
		}
	}

	switch network {
	case types.NetworkOffline, types.NetworkPoor:
		return Configuration{
			Strategy:             StrategyConservative,
			ForwardBufferSeconds: conservativeForwardSeconds,
			Reason:               fmt.Sprintf("constrained network (%s)", network),
		}
	case types.NetworkFair:
		return Configuration{
			Strategy:             StrategyBalanced,
			ForwardBufferSeconds: balancedForwardSeconds,
			Reason:               "fair network",
		}
	default:
		return Configuration{
			Strategy:             StrategyAggressive,
			ForwardBufferSeconds: aggressiveForwardSeconds,
			Reason:               fmt.Sprintf("healthy network (%s)", network),
		}
	}
}
