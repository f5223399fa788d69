// SPDX-License-Identifier: MIT

// Package platform supplies memory readers for injection into the monitor.
// The control layer itself never calls OS APIs.
package platform

import (
	"sync"

	"github.com/streamkit/playctl/internal/memory"
)

// FixedReader returns a reader that always yields the given sample. Useful
// for tests and simulations.
func FixedReader(s memory.Sample) memory.ReaderFunc {
	return func() (memory.Sample, error) {
		return s, nil
	}
}

// AdjustableReader is a reader whose sample can be swapped at runtime, for
// simulations that script memory pressure.
type AdjustableReader struct {
	mu     sync.Mutex
	sample memory.Sample
}

// NewAdjustableReader creates a reader starting at the given sample.
func NewAdjustableReader(s memory.Sample) *AdjustableReader {
	return &AdjustableReader{sample: s}
}

// Set replaces the sample returned by future reads.
func (r *AdjustableReader) Set(s memory.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sample = s
}

// Read implements memory.ReaderFunc via method value.
func (r *AdjustableReader) Read() (memory.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sample, nil
}
