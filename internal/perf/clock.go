// SPDX-License-Identifier: MIT

// Package perf tracks rebuffering and startup timing for one playback
// session at a time and raises alerts when thresholds are crossed.
package perf

import "time"

// clock abstracts time operations for testability.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
