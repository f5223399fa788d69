// SPDX-License-Identifier: MIT

// Package playback owns the playback state machine: a fixed transition table
// over a closed state set, driven exclusively by actions.
package playback

import (
	"fmt"
	"time"
)

// StateKind identifies a playback state variant.
type StateKind string

const (
	StateIdle      StateKind = "idle"
	StateLoading   StateKind = "loading"
	StateReady     StateKind = "ready"
	StatePlaying   StateKind = "playing"
	StatePaused    StateKind = "paused"
	StateBuffering StateKind = "buffering"
	StateSeeking   StateKind = "seeking"
	StateEnded     StateKind = "ended"
	StateFailed    StateKind = "failed"
)

// AllStateKinds returns every state variant.
func AllStateKinds() []StateKind {
	return []StateKind{
		StateIdle, StateLoading, StateReady, StatePlaying, StatePaused,
		StateBuffering, StateSeeking, StateEnded, StateFailed,
	}
}

// State is one playback state with its payload. States are comparable
// values; two states are the same only if kind and payload match.
type State struct {
	Kind StateKind `json:"kind"`

	// URL is set for Loading.
	URL string `json:"url,omitempty"`

	// ResumeTo is set for Buffering and Seeking: the state (Playing or
	// Paused) to return to once the interruption resolves.
	ResumeTo StateKind `json:"resume_to,omitempty"`

	// SeekTarget is set for Seeking.
	SeekTarget time.Duration `json:"seek_target,omitempty"`

	// Err is set for Failed.
	Err Error `json:"error,omitempty"`
}

// String implements fmt.Stringer.
func (s State) String() string {
	switch s.Kind {
	case StateLoading:
		return fmt.Sprintf("loading(%s)", s.URL)
	case StateBuffering:
		return fmt.Sprintf("buffering(resume=%s)", s.ResumeTo)
	case StateSeeking:
		return fmt.Sprintf("seeking(%s, resume=%s)", s.SeekTarget, s.ResumeTo)
	case StateFailed:
		return fmt.Sprintf("failed(%s)", s.Err.Kind)
	default:
		return string(s.Kind)
	}
}

// Idle is the initial state.
func Idle() State { return State{Kind: StateIdle} }

// Loading carries the URL being prepared.
func Loading(url string) State { return State{Kind: StateLoading, URL: url} }

// Ready means the media is prepared and playable.
func Ready() State { return State{Kind: StateReady} }

// Playing means playback is running.
func Playing() State { return State{Kind: StatePlaying} }

// Paused means playback is halted by intent.
func Paused() State { return State{Kind: StatePaused} }

// Buffering carries the resume intent captured when stalling began.
func Buffering(resumeTo StateKind) State {
	return State{Kind: StateBuffering, ResumeTo: resumeTo}
}

// Seeking carries the target position and the resume intent.
func Seeking(target time.Duration, resumeTo StateKind) State {
	return State{Kind: StateSeeking, SeekTarget: target, ResumeTo: resumeTo}
}

// Ended means the media played to completion.
func Ended() State { return State{Kind: StateEnded} }

// Failed carries the error that broke playback.
func Failed(err Error) State { return State{Kind: StateFailed, Err: err} }

// resume materialises a resume intent back into a full state.
func resume(kind StateKind) State {
	if kind == StatePaused {
		return Paused()
	}
	return Playing()
}
