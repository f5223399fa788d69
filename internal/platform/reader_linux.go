// SPDX-License-Identifier: MIT

//go:build linux

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/streamkit/playctl/internal/memory"
)

// SystemReader returns a memory reader backed by sysinfo(2). Available
// memory is approximated as free plus buffer pages.
func SystemReader() memory.ReaderFunc {
	return func() (memory.Sample, error) {
		var si unix.Sysinfo_t
		if err := unix.Sysinfo(&si); err != nil {
			return memory.Sample{}, fmt.Errorf("sysinfo: %w", err)
		}

		unitSize := uint64(si.Unit)
		if unitSize == 0 {
			unitSize = 1
		}
		total := uint64(si.Totalram) * unitSize
		available := (uint64(si.Freeram) + uint64(si.Bufferram)) * unitSize
		if available > total {
			available = total
		}

		return memory.Sample{
			AvailableBytes: available,
			TotalBytes:     total,
			UsedBytes:      total - available,
		}, nil
	}
}
