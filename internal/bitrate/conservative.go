// SPDX-License-Identifier: MIT

package bitrate

import (
	"fmt"

	"github.com/streamkit/playctl/internal/types"
)

// Default thresholds for the conservative strategy.
const (
	DefaultUpgradeBufferHealth    = 0.7
	DefaultDowngradeRebufferRatio = 0.05
)

// Conservative is the stock strategy: slow to upgrade, quick to downgrade.
// Upgrades require a healthy buffer and at least Good network; downgrades
// fire immediately on rebuffering or a Poor link, stepping exactly one level.
type Conservative struct {
	levels []Level // ascending bitrate order

	upgradeBufferHealth    float64
	downgradeRebufferRatio float64
}

// ConservativeOption configures a Conservative strategy.
type ConservativeOption func(*Conservative)

// WithUpgradeBufferHealth overrides the buffer health an upgrade requires.
func WithUpgradeBufferHealth(v float64) ConservativeOption {
	return func(c *Conservative) {
		if v > 0 && v <= 1 {
			c.upgradeBufferHealth = v
		}
	}
}

// WithDowngradeRebufferRatio overrides the rebuffer ratio that forces a downgrade.
func WithDowngradeRebufferRatio(v float64) ConservativeOption {
	return func(c *Conservative) {
		if v > 0 && v <= 1 {
			c.downgradeRebufferRatio = v
		}
	}
}

// NewConservative builds the strategy over the given rendition ladder.
// The ladder must not be empty; it is copied and sorted by bitrate.
func NewConservative(levels []Level, opts ...ConservativeOption) (*Conservative, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("bitrate ladder must not be empty")
	}
	c := &Conservative{
		levels:                 sortLevels(levels),
		upgradeBufferHealth:    DefaultUpgradeBufferHealth,
		downgradeRebufferRatio: DefaultDowngradeRebufferRatio,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Levels returns the sorted rendition ladder.
func (c *Conservative) Levels() []Level {
	out := make([]Level, len(c.levels))
	copy(out, c.levels)
	return out
}

// InitialLevel picks the starting rendition by network-quality bucket.
func (c *Conservative) InitialLevel(network types.NetworkQuality) Level {
	n := len(c.levels)
	switch network {
	case types.NetworkOffline, types.NetworkPoor:
		return c.levels[0]
	case types.NetworkFair:
		return c.levels[n/3]
	case types.NetworkGood:
		return c.levels[(2*n)/3]
	default:
		return c.levels[n-1]
	}
}

// ShouldDowngrade reports whether conditions force a step down: a rebuffer
// ratio at or above the threshold, or a network at Poor or worse.
func (c *Conservative) ShouldDowngrade(cond Conditions) bool {
	if cond.RebufferRatio >= c.downgradeRebufferRatio {
		return true
	}
	return cond.Network.AtMost(types.NetworkPoor)
}

// ShouldUpgrade reports whether conditions permit considering a step up:
// network at least Fair and buffer health at or above the threshold.
func (c *Conservative) ShouldUpgrade(cond Conditions) bool {
	if !cond.Network.AtLeast(types.NetworkFair) {
		return false
	}
	return cond.BufferHealth >= c.upgradeBufferHealth
}

// Decide evaluates the conditions. Downgrades bypass any upgrade reasoning.
// An upgrade that passes ShouldUpgrade still only fires on a Good or better
// network; at Fair the decision is to hold.
func (c *Conservative) Decide(cond Conditions) Decision {
	idx := indexOf(c.levels, cond.Current.Bitrate)
	if idx < 0 {
		// Unknown current level: re-anchor on the ladder.
		return Decision{Verb: VerbMaintain, Level: c.InitialLevel(cond.Network)}
	}

	if c.ShouldDowngrade(cond) {
		if idx == 0 {
			return Decision{Verb: VerbMaintain, Level: c.levels[0]}
		}
		reason := fmt.Sprintf("rebuffer ratio %.3f", cond.RebufferRatio)
		if cond.RebufferRatio < c.downgradeRebufferRatio {
			reason = fmt.Sprintf("network %s", cond.Network)
		}
		return Decision{Verb: VerbDowngrade, Level: c.levels[idx-1], Reason: reason}
	}

	if c.ShouldUpgrade(cond) && cond.Network.AtLeast(types.NetworkGood) {
		if idx == len(c.levels)-1 {
			return Decision{Verb: VerbMaintain, Level: c.levels[idx]}
		}
		return Decision{Verb: VerbUpgrade, Level: c.levels[idx+1]}
	}

	return Decision{Verb: VerbMaintain, Level: c.levels[idx]}
}

var _ Strategy = (*Conservative)(nil)
