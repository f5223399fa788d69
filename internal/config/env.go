// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/streamkit/playctl/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default. Empty values fall back to the default.
func ParseString(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultValue
}

// ParseInt reads an integer from an environment variable or returns the
// default. Parse errors fall back to the default with a warning.
func ParseInt(key string, defaultValue int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l := log.WithComponent("config")
		l.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment, using default")
		return defaultValue
	}
	return n
}

// ParseUint reads an unsigned integer from an environment variable.
func ParseUint(key string, defaultValue uint64) uint64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		l := log.WithComponent("config")
		l.Warn().
			Str("key", key).
			Str("value", v).
			Uint64("default", defaultValue).
			Msg("invalid unsigned integer in environment, using default")
		return defaultValue
	}
	return n
}

// ParseFloat reads a float from an environment variable.
func ParseFloat(key string, defaultValue float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l := log.WithComponent("config")
		l.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid float in environment, using default")
		return defaultValue
	}
	return f
}

// ParseDuration reads a duration ("2s", "500ms") from an environment variable.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l := log.WithComponent("config")
		l.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment, using default")
		return defaultValue
	}
	return d
}
