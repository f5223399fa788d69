// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration with precedence ENV > file > defaults.
type Loader struct {
	configPath string
}

// NewLoader creates a loader. configPath may be empty for env-only loading.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load builds the effective configuration: defaults, then the YAML file (if
// any), then environment overrides, then validation.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := applyFile(&cfg, l.configPath); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = ParseString("PLAYCTL_LISTEN", cfg.ListenAddr)
	cfg.LogLevel = ParseString("PLAYCTL_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("PLAYCTL_LOG_SERVICE", cfg.LogService)
	cfg.DataDir = ParseString("PLAYCTL_DATA", cfg.DataDir)

	cfg.MemoryPollInterval = ParseDuration("PLAYCTL_MEMORY_POLL_INTERVAL", cfg.MemoryPollInterval)
	cfg.Memory.WarningAvailableMB = ParseUint("PLAYCTL_MEMORY_WARNING_MB", cfg.Memory.WarningAvailableMB)
	cfg.Memory.CriticalAvailableMB = ParseUint("PLAYCTL_MEMORY_CRITICAL_MB", cfg.Memory.CriticalAvailableMB)

	cfg.Perf.MaxStartupTime = ParseDuration("PLAYCTL_PERF_MAX_STARTUP", cfg.Perf.MaxStartupTime)
	cfg.Perf.MaxRebufferRatio = ParseFloat("PLAYCTL_PERF_MAX_REBUFFER_RATIO", cfg.Perf.MaxRebufferRatio)
	cfg.Perf.MaxBufferingDuration = ParseDuration("PLAYCTL_PERF_MAX_BUFFERING", cfg.Perf.MaxBufferingDuration)
	cfg.Perf.MaxEventsPerMinute = ParseInt("PLAYCTL_PERF_MAX_EVENTS_PER_MINUTE", cfg.Perf.MaxEventsPerMinute)
	cfg.Perf.MaxMemoryUsedMB = ParseUint("PLAYCTL_PERF_MAX_MEMORY_MB", cfg.Perf.MaxMemoryUsedMB)

	cfg.UpgradeBufferHealth = ParseFloat("PLAYCTL_UPGRADE_BUFFER_HEALTH", cfg.UpgradeBufferHealth)
	cfg.DowngradeRebufferRatio = ParseFloat("PLAYCTL_DOWNGRADE_REBUFFER_RATIO", cfg.DowngradeRebufferRatio)

	cfg.SegmentCacheTTL = ParseDuration("PLAYCTL_SEGMENT_CACHE_TTL", cfg.SegmentCacheTTL)
	cfg.APIRequestsPerMinute = ParseInt("PLAYCTL_API_RPM", cfg.APIRequestsPerMinute)
}
