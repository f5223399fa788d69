// SPDX-License-Identifier: MIT

// Package types holds the shared signal classifications consumed across the
// control layer.
package types

import (
	"encoding/json"
	"fmt"
)

// NetworkQuality classifies the observed network link quality.
// Values form a total order: Offline < Poor < Fair < Good < Excellent.
type NetworkQuality string

const (
	// NetworkOffline indicates no usable connectivity.
	NetworkOffline NetworkQuality = "offline"

	// NetworkPoor indicates a link too weak for anything beyond the lowest rendition.
	NetworkPoor NetworkQuality = "poor"

	// NetworkFair indicates a usable but constrained link.
	NetworkFair NetworkQuality = "fair"

	// NetworkGood indicates a healthy link.
	NetworkGood NetworkQuality = "good"

	// NetworkExcellent indicates ample headroom.
	NetworkExcellent NetworkQuality = "excellent"
)

// String implements fmt.Stringer.
func (q NetworkQuality) String() string {
	return string(q)
}

// IsValid checks whether the quality value is one of the defined levels.
func (q NetworkQuality) IsValid() bool {
	switch q {
	case NetworkOffline, NetworkPoor, NetworkFair, NetworkGood, NetworkExcellent:
		return true
	default:
		return false
	}
}

func (q NetworkQuality) rank() int {
	switch q {
	case NetworkOffline:
		return 0
	case NetworkPoor:
		return 1
	case NetworkFair:
		return 2
	case NetworkGood:
		return 3
	case NetworkExcellent:
		return 4
	default:
		return -1
	}
}

// Compare returns -1, 0 or +1 ordering q against other.
func (q NetworkQuality) Compare(other NetworkQuality) int {
	a, b := q.rank(), other.rank()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether q is the same as or better than other.
func (q NetworkQuality) AtLeast(other NetworkQuality) bool {
	return q.rank() >= other.rank()
}

// AtMost reports whether q is the same as or worse than other.
func (q NetworkQuality) AtMost(other NetworkQuality) bool {
	return q.rank() <= other.rank()
}

// MarshalJSON implements json.Marshaler.
func (q NetworkQuality) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(q))
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *NetworkQuality) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	quality := NetworkQuality(str)
	if !quality.IsValid() {
		return fmt.Errorf("invalid network quality: %q", str)
	}

	*q = quality
	return nil
}

// ParseNetworkQuality parses a string into a NetworkQuality.
func ParseNetworkQuality(s string) (NetworkQuality, error) {
	quality := NetworkQuality(s)
	if !quality.IsValid() {
		return "", fmt.Errorf("invalid network quality: %q", s)
	}
	return quality, nil
}

// AllNetworkQualities returns all defined quality levels in ascending order.
func AllNetworkQualities() []NetworkQuality {
	return []NetworkQuality{
		NetworkOffline,
		NetworkPoor,
		NetworkFair,
		NetworkGood,
		NetworkExcellent,
	}
}
