// SPDX-License-Identifier: MIT

// Package cleanup coordinates priority-ordered eviction across registered
// cache owners when memory runs low.
package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Priority orders cleaners. Low < Medium < High; high-priority cleaners run
// first because they are expected to free the most.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	return string(p)
}

// IsValid checks whether the priority is one of the defined values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank returns the ordering rank: 0=low, 1=medium, 2=high.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	default:
		return -1
	}
}

// MarshalJSON implements json.Marshaler.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	pr := Priority(str)
	if !pr.IsValid() {
		return fmt.Errorf("invalid cleanup priority: %q", str)
	}
	*p = pr
	return nil
}

// Stats is what a cleaner reports after evicting.
type Stats struct {
	BytesFreed   uint64
	ItemsRemoved int
}

// ResourceCleaner is any collaborator owning a reclaimable resource. The
// coordinator never knows cache implementation details.
type ResourceCleaner interface {
	// Name identifies the cleaner in results and metrics.
	Name() string
	// Priority orders the cleaner relative to others.
	Priority() Priority
	// Estimate returns the bytes the cleaner could currently free.
	Estimate(ctx context.Context) (uint64, error)
	// Cleanup evicts and reports what was freed. Cleanup may be I/O-bound.
	Cleanup(ctx context.Context) (Stats, error)
}

// Result records one cleaner invocation. A failing cleaner never aborts the
// pass; the failure is reported here instead.
type Result struct {
	Name         string    `json:"name"`
	Priority     Priority  `json:"priority"`
	BytesFreed   uint64    `json:"bytes_freed"`
	ItemsRemoved int       `json:"items_removed"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
