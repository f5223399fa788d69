// SPDX-License-Identifier: MIT

// Package bitrate selects the rendition playback should request next. The
// strategies are pure: all state is passed in, nothing is remembered between
// calls, and a decision is always returned.
package bitrate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/streamkit/playctl/internal/types"
)

// Level is one selectable rendition, ordered by bitrate.
type Level struct {
	Bitrate int64  `json:"bitrate"` // bits per second
	Label   string `json:"label"`
}

// String implements fmt.Stringer.
func (l Level) String() string {
	if l.Label != "" {
		return l.Label
	}
	return fmt.Sprintf("%dbps", l.Bitrate)
}

// Verb is the kind of decision made.
type Verb string

const (
	VerbMaintain  Verb = "maintain"
	VerbUpgrade   Verb = "upgrade"
	VerbDowngrade Verb = "downgrade"
)

// Decision is the outcome of one bitrate evaluation.
type Decision struct {
	Verb   Verb   `json:"verb"`
	Level  Level  `json:"level"`
	Reason string `json:"reason,omitempty"` // set on downgrades
}

// MarshalJSON keeps the verb readable in event payloads.
func (v Verb) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

// Conditions carries everything a strategy may consult at a decision point.
type Conditions struct {
	Current       Level
	BufferHealth  float64 // 0..1, fullness relative to target
	RebufferRatio float64 // buffering time / watch time
	Network       types.NetworkQuality
}

// Strategy decides which rendition to request.
type Strategy interface {
	// InitialLevel picks the starting rendition for a fresh session.
	InitialLevel(network types.NetworkQuality) Level
	// Decide evaluates the current conditions and returns the next move.
	Decide(c Conditions) Decision
}

// sortLevels returns a copy of levels in ascending bitrate order.
func sortLevels(levels []Level) []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	sort.Slice(out, func(i, j int) bool { return out[i].Bitrate < out[j].Bitrate })
	return out
}

// indexOf locates the level with the given bitrate, or -1.
func indexOf(levels []Level, bitrate int64) int {
	for i, l := range levels {
		if l.Bitrate == bitrate {
			return i
		}
	}
	return -1
}
