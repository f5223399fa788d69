// SPDX-License-Identifier: MIT

// Package config loads the control layer's configuration with precedence
// ENV > file > defaults, validates it, and supports hot reload of tunables.
package config

import (
	"fmt"
	"time"

	"github.com/streamkit/playctl/internal/bitrate"
	"github.com/streamkit/playctl/internal/memory"
	"github.com/streamkit/playctl/internal/perf"
)

// Config is the full daemon configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	LogService string `yaml:"log_service"`
	DataDir    string `yaml:"data_dir"`

	MemoryPollInterval time.Duration     `yaml:"memory_poll_interval"`
	Memory             memory.Thresholds `yaml:"memory"`

	Perf perf.Thresholds `yaml:"perf"`

	// Ladder is the selectable rendition list, lowest first.
	Ladder []bitrate.Level `yaml:"ladder"`

	UpgradeBufferHealth    float64 `yaml:"upgrade_buffer_health"`
	DowngradeRebufferRatio float64 `yaml:"downgrade_rebuffer_ratio"`

	SegmentCacheTTL time.Duration `yaml:"segment_cache_ttl"`
	DiskCache       bool          `yaml:"disk_cache"`

	APIRequestsPerMinute int `yaml:"api_requests_per_minute"`
}

// Defaults returns the stock configuration.
func Defaults() Config {
	return Config{
		ListenAddr:         ":8484",
		LogLevel:           "info",
		LogService:         "playctl",
		DataDir:            "/var/lib/playctl",
		MemoryPollInterval: memory.DefaultPollInterval,
		Memory:             memory.DefaultThresholds(),
		Perf:               perf.DefaultThresholds(),
		Ladder: []bitrate.Level{
			{Bitrate: 400_000, Label: "240p"},
			{Bitrate: 800_000, Label: "360p"},
			{Bitrate: 1_500_000, Label: "480p"},
			{Bitrate: 3_000_000, Label: "720p"},
			{Bitrate: 6_000_000, Label: "1080p"},
			{Bitrate: 12_000_000, Label: "4k"},
		},
		UpgradeBufferHealth:    bitrate.DefaultUpgradeBufferHealth,
		DowngradeRebufferRatio: bitrate.DefaultDowngradeRebufferRatio,
		SegmentCacheTTL:        5 * time.Minute,
		DiskCache:              false,
		APIRequestsPerMinute:   600,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.MemoryPollInterval <= 0 {
		return fmt.Errorf("memory_poll_interval must be positive, got %s", c.MemoryPollInterval)
	}
	if err := c.Memory.Validate(); err != nil {
		return fmt.Errorf("memory thresholds: %w", err)
	}
	if len(c.Ladder) == 0 {
		return fmt.Errorf("ladder must contain at least one rendition")
	}
	for i, l := range c.Ladder {
		if l.Bitrate <= 0 {
			return fmt.Errorf("ladder[%d]: bitrate must be positive, got %d", i, l.Bitrate)
		}
	}
	if c.UpgradeBufferHealth <= 0 || c.UpgradeBufferHealth > 1 {
		return fmt.Errorf("upgrade_buffer_health must be in (0, 1], got %g", c.UpgradeBufferHealth)
	}
	if c.DowngradeRebufferRatio <= 0 || c.DowngradeRebufferRatio > 1 {
		return fmt.Errorf("downgrade_rebuffer_ratio must be in (0, 1], got %g", c.DowngradeRebufferRatio)
	}
	if c.APIRequestsPerMinute <= 0 {
		return fmt.Errorf("api_requests_per_minute must be positive, got %d", c.APIRequestsPerMinute)
	}
	return nil
}
