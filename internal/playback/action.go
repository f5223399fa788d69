// SPDX-License-Identifier: MIT

package playback

import (
	"fmt"
	"time"
)

// ActionKind identifies a playback action variant. Actions are the only way
// state can change.
type ActionKind string

const (
	// User intents.
	ActionLoad  ActionKind = "load"
	ActionPlay  ActionKind = "play"
	ActionPause ActionKind = "pause"
	ActionSeek  ActionKind = "seek"
	ActionStop  ActionKind = "stop"
	ActionRetry ActionKind = "retry"

	// System events.
	ActionDidBecomeReady     ActionKind = "did_become_ready"
	ActionDidFail            ActionKind = "did_fail"
	ActionDidStartBuffering  ActionKind = "did_start_buffering"
	ActionDidFinishBuffering ActionKind = "did_finish_buffering"
	ActionDidFinishSeeking   ActionKind = "did_finish_seeking"
	ActionDidReachEnd        ActionKind = "did_reach_end"
	ActionAudioInterrupted   ActionKind = "audio_session_interrupted"
	ActionAudioResumed       ActionKind = "audio_session_resumed"
	ActionDidEnterBackground ActionKind = "did_enter_background"
)

// Action is one playback action with its payload.
type Action struct {
	Kind ActionKind `json:"kind"`

	// URL is set for Load.
	URL string `json:"url,omitempty"`

	// SeekTarget is set for Seek.
	SeekTarget time.Duration `json:"seek_target,omitempty"`

	// Err is set for DidFail.
	Err Error `json:"error,omitempty"`
}

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a.Kind {
	case ActionLoad:
		return fmt.Sprintf("load(%s)", a.URL)
	case ActionSeek:
		return fmt.Sprintf("seek(%s)", a.SeekTarget)
	case ActionDidFail:
		return fmt.Sprintf("did_fail(%s)", a.Err.Kind)
	default:
		return string(a.Kind)
	}
}

// Load requests preparing the given URL.
func Load(url string) Action { return Action{Kind: ActionLoad, URL: url} }

// Play requests starting or resuming playback.
func Play() Action { return Action{Kind: ActionPlay} }

// Pause requests halting playback.
func Pause() Action { return Action{Kind: ActionPause} }

// Seek requests moving to the target position.
func Seek(target time.Duration) Action {
	return Action{Kind: ActionSeek, SeekTarget: target}
}

// Stop requests tearing playback down to Idle.
func Stop() Action { return Action{Kind: ActionStop} }

// Retry requests recovering from a recoverable failure.
func Retry() Action { return Action{Kind: ActionRetry} }

// DidBecomeReady signals the media pipeline finished preparing.
func DidBecomeReady() Action { return Action{Kind: ActionDidBecomeReady} }

// DidFail signals the media pipeline broke with the given error.
func DidFail(err Error) Action { return Action{Kind: ActionDidFail, Err: err} }

// DidStartBuffering signals the pipeline stalled waiting for data.
func DidStartBuffering() Action { return Action{Kind: ActionDidStartBuffering} }

// DidFinishBuffering signals the stall resolved.
func DidFinishBuffering() Action { return Action{Kind: ActionDidFinishBuffering} }

// DidFinishSeeking signals a seek completed.
func DidFinishSeeking() Action { return Action{Kind: ActionDidFinishSeeking} }

// DidReachEnd signals the media played to completion.
func DidReachEnd() Action { return Action{Kind: ActionDidReachEnd} }

// AudioSessionInterrupted signals the audio session was taken away.
func AudioSessionInterrupted() Action { return Action{Kind: ActionAudioInterrupted} }

// AudioSessionResumed signals the audio session came back.
func AudioSessionResumed() Action { return Action{Kind: ActionAudioResumed} }

// DidEnterBackground signals the app moved to the background.
func DidEnterBackground() Action { return Action{Kind: ActionDidEnterBackground} }
