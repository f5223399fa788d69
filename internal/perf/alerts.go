// SPDX-License-Identifier: MIT

package perf

import "time"

// AlertKind identifies which threshold a performance alert crossed.
type AlertKind string

const (
	AlertSlowStartup       AlertKind = "slow_startup"
	AlertHighRebufferRatio AlertKind = "high_rebuffer_ratio"
	AlertLongBuffering     AlertKind = "long_buffering"
	AlertFrequentBuffering AlertKind = "frequent_buffering"
	AlertHighMemory        AlertKind = "high_memory"
	AlertQualityDegraded   AlertKind = "quality_degraded"
)

// Severity grades an alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one threshold crossing. Alerts are emitted, never stored.
type Alert struct {
	Kind      AlertKind `json:"kind"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Thresholds configures alert boundaries.
type Thresholds struct {
	// MaxStartupTime is the acceptable time-to-first-frame.
	MaxStartupTime time.Duration `yaml:"max_startup_time" json:"max_startup_time"`
	// MaxRebufferRatio is the acceptable buffering/watch-time ratio.
	MaxRebufferRatio float64 `yaml:"max_rebuffer_ratio" json:"max_rebuffer_ratio"`
	// MaxBufferingDuration is the acceptable total stall time per session.
	MaxBufferingDuration time.Duration `yaml:"max_buffering_duration" json:"max_buffering_duration"`
	// MaxEventsPerMinute is the acceptable stall frequency.
	MaxEventsPerMinute int `yaml:"max_events_per_minute" json:"max_events_per_minute"`
	// MaxMemoryUsedMB is the acceptable process memory footprint.
	MaxMemoryUsedMB uint64 `yaml:"max_memory_used_mb" json:"max_memory_used_mb"`
	// DowngradeWarningPercent raises a warning when this share of bitrate
	// decisions were downgrades.
	DowngradeWarningPercent float64 `yaml:"downgrade_warning_percent" json:"downgrade_warning_percent"`
	// DowngradeCriticalPercent raises a critical alert at this share.
	DowngradeCriticalPercent float64 `yaml:"downgrade_critical_percent" json:"downgrade_critical_percent"`
}

// DefaultThresholds returns the stock alert boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxStartupTime:           5 * time.Second,
		MaxRebufferRatio:         0.05,
		MaxBufferingDuration:     30 * time.Second,
		MaxEventsPerMinute:       4,
		MaxMemoryUsedMB:          500,
		DowngradeWarningPercent:  50,
		DowngradeCriticalPercent: 75,
	}
}
