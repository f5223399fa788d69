// SPDX-License-Identifier: MIT

//go:build !linux

package platform

import (
	"fmt"

	"github.com/streamkit/playctl/internal/memory"
)

// SystemReader has no implementation on this platform; embedders must
// inject their own reader.
func SystemReader() memory.ReaderFunc {
	return func() (memory.Sample, error) {
		return memory.Sample{}, fmt.Errorf("no system memory reader on this platform")
	}
}
