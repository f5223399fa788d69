// SPDX-License-Identifier: MIT

// Package memory classifies system memory samples into pressure levels and
// polls an injected reader for changes.
package memory

import (
	"encoding/json"
	"fmt"
	"time"
)

// PressureLevel is the ordered classification of available memory.
// Normal < Warning < Critical.
type PressureLevel string

const (
	PressureNormal   PressureLevel = "normal"
	PressureWarning  PressureLevel = "warning"
	PressureCritical PressureLevel = "critical"
)

// String implements fmt.Stringer.
func (p PressureLevel) String() string {
	return string(p)
}

// IsValid checks whether the pressure level is one of the defined values.
func (p PressureLevel) IsValid() bool {
	switch p {
	case PressureNormal, PressureWarning, PressureCritical:
		return true
	default:
		return false
	}
}

// Rank returns the severity rank: 0=normal, 1=warning, 2=critical.
func (p PressureLevel) Rank() int {
	switch p {
	case PressureNormal:
		return 0
	case PressureWarning:
		return 1
	case PressureCritical:
		return 2
	default:
		return -1
	}
}

// AtLeast reports whether p is the same as or more severe than other.
func (p PressureLevel) AtLeast(other PressureLevel) bool {
	return p.Rank() >= other.Rank()
}

// MarshalJSON implements json.Marshaler.
func (p PressureLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PressureLevel) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	level := PressureLevel(str)
	if !level.IsValid() {
		return fmt.Errorf("invalid pressure level: %q", str)
	}
	*p = level
	return nil
}

// Thresholds configures the available-memory boundaries for classification.
type Thresholds struct {
	// WarningAvailableMB is the boundary below which pressure is Warning.
	WarningAvailableMB uint64 `yaml:"warning_available_mb" json:"warning_available_mb"`
	// CriticalAvailableMB is the boundary below which pressure is Critical.
	CriticalAvailableMB uint64 `yaml:"critical_available_mb" json:"critical_available_mb"`
}

// DefaultThresholds returns the stock classification boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarningAvailableMB:  100,
		CriticalAvailableMB: 50,
	}
}

// Validate checks threshold consistency.
func (t Thresholds) Validate() error {
	if t.CriticalAvailableMB == 0 {
		return fmt.Errorf("critical_available_mb must be positive")
	}
	if t.WarningAvailableMB <= t.CriticalAvailableMB {
		return fmt.Errorf("warning_available_mb (%d) must exceed critical_available_mb (%d)",
			t.WarningAvailableMB, t.CriticalAvailableMB)
	}
	return nil
}

// Sample is one raw memory observation from the injected reader.
type Sample struct {
	AvailableBytes uint64 `json:"available_bytes"`
	TotalBytes     uint64 `json:"total_bytes"`
	UsedBytes      uint64 `json:"used_bytes"`
}

// State is a classified memory observation.
type State struct {
	AvailableBytes uint64        `json:"available_bytes"`
	TotalBytes     uint64        `json:"total_bytes"`
	UsedBytes      uint64        `json:"used_bytes"`
	Timestamp      time.Time     `json:"timestamp"`
	Pressure       PressureLevel `json:"pressure"`
}

const bytesPerMB = 1024 * 1024

// Classify derives the pressure level for a sample against the thresholds.
func Classify(s Sample, t Thresholds) PressureLevel {
	availableMB := s.AvailableBytes / bytesPerMB
	switch {
	case availableMB < t.CriticalAvailableMB:
		return PressureCritical
	case availableMB < t.WarningAvailableMB:
		return PressureWarning
	default:
		return PressureNormal
	}
}

// NewState builds a classified State from a raw sample.
func NewState(s Sample, t Thresholds, now time.Time) State {
	return State{
		AvailableBytes: s.AvailableBytes,
		TotalBytes:     s.TotalBytes,
		UsedBytes:      s.UsedBytes,
		Timestamp:      now,
		Pressure:       Classify(s, t),
	}
}
