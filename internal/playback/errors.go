// SPDX-License-Identifier: MIT

package playback

import "fmt"

// ErrorKind is the closed set of playback failure categories.
type ErrorKind string

const (
	ErrorKindLoadFailed ErrorKind = "load_failed"
	ErrorKindNetwork    ErrorKind = "network"
	ErrorKindDecoding   ErrorKind = "decoding"
	ErrorKindDRM        ErrorKind = "drm"
	ErrorKindUnknown    ErrorKind = "unknown"
)

// Error is a playback failure. The zero value means "no error".
type Error struct {
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// IsZero reports whether e carries no failure.
func (e Error) IsZero() bool {
	return e.Kind == ""
}

// Recoverable reports whether a Retry action is allowed from the Failed
// state. Only network errors are recoverable by policy.
func (e Error) Recoverable() bool {
	return e.Kind == ErrorKindNetwork
}

// NetworkError builds a recoverable network failure.
func NetworkError(reason string) Error {
	return Error{Kind: ErrorKindNetwork, Reason: reason}
}

// LoadError builds a non-recoverable load failure.
func LoadError(reason string) Error {
	return Error{Kind: ErrorKindLoadFailed, Reason: reason}
}

// DecodingError builds a non-recoverable decoding failure.
func DecodingError(reason string) Error {
	return Error{Kind: ErrorKindDecoding, Reason: reason}
}

// DRMError builds a non-recoverable DRM failure.
func DRMError(reason string) Error {
	return Error{Kind: ErrorKindDRM, Reason: reason}
}

// UnknownError builds a non-recoverable failure of unknown origin.
func UnknownError(reason string) Error {
	return Error{Kind: ErrorKindUnknown, Reason: reason}
}
