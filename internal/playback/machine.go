// SPDX-License-Identifier: MIT

package playback

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamkit/playctl/internal/bus"
	"github.com/streamkit/playctl/internal/log"
	"github.com/streamkit/playctl/internal/metrics"
)

// Transition is an immutable record of one accepted state change.
type Transition struct {
	From      State     `json:"from"`
	To        State     `json:"to"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// DidChangeState reports whether the transition actually moved the machine.
func (t Transition) DidChangeState() bool {
	return t.From != t.To
}

// Machine is the single exclusive owner of the playback state. Actions are
// applied through Send; invalid (state, action) pairs are silently rejected.
type Machine struct {
	mu     sync.Mutex
	state  State
	logger zerolog.Logger

	transitions *bus.Broadcaster[Transition]
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithMachineLogger overrides the component logger.
func WithMachineLogger(l zerolog.Logger) MachineOption {
	return func(m *Machine) { m.logger = l }
}

// NewMachine creates a machine in the Idle state.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		state:       Idle(),
		logger:      log.WithComponent("playback"),
		transitions: bus.New[Transition]("playback_transition", 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CurrentState returns the active state.
func (m *Machine) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a subscription carrying accepted transitions in commit
// order.
func (m *Machine) Subscribe() *bus.Subscription[Transition] {
	return m.transitions.Subscribe()
}

// CanPerform is a dry run of Send against the same transition table.
func (m *Machine) CanPerform(action Action) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := nextState(m.state, action)
	return ok
}

// Send applies an action. It returns the committed transition and true when
// the (state, action) pair is valid, or a zero transition and false when the
// table rejects it; rejected actions leave the state untouched.
func (m *Machine) Send(action Action) (Transition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	to, ok := nextState(m.state, action)
	if !ok {
		metrics.RecordRejectedAction(string(m.state.Kind), string(action.Kind))
		m.logger.Debug().
			Str(log.FieldEvent, "playback.action_rejected").
			Str(log.FieldOldState, m.state.String()).
			Str(log.FieldAction, action.String()).
			Msg("action rejected by transition table")
		return Transition{}, false
	}

	tr := Transition{
		From:      m.state,
		To:        to,
		Action:    action,
		Timestamp: time.Now(),
	}
	m.state = to

	metrics.RecordTransition(string(tr.From.Kind), string(tr.To.Kind), string(action.Kind))
	metrics.SetPlaybackState(string(to.Kind), stateKindNames())

	m.logger.Info().
		Str(log.FieldEvent, "playback.transition").
		Str(log.FieldOldState, tr.From.String()).
		Str(log.FieldNewState, tr.To.String()).
		Str(log.FieldAction, action.String()).
		Msg("playback state changed")

	// Published under the lock so subscribers observe commit order.
	m.transitions.Publish(tr)

	return tr, true
}

// Close tears down the transition broadcast channel.
func (m *Machine) Close() {
	m.transitions.Close()
}

// nextState is the transition table. It returns the successor state and
// whether the pair is valid. Pure: no side effects, no clock.
func nextState(s State, a Action) (State, bool) {
	// Stop tears anything except Idle down to Idle.
	if a.Kind == ActionStop {
		if s.Kind == StateIdle {
			return State{}, false
		}
		return Idle(), true
	}

	switch s.Kind {
	case StateIdle:
		if a.Kind == ActionLoad {
			return Loading(a.URL), true
		}

	case StateLoading:
		switch a.Kind {
		case ActionDidBecomeReady:
			return Ready(), true
		case ActionDidFail:
			return Failed(a.Err), true
		}

	case StateReady:
		switch a.Kind {
		case ActionPlay:
			return Playing(), true
		case ActionDidFail:
			return Failed(a.Err), true
		}

	case StatePlaying:
		switch a.Kind {
		case ActionPause:
			return Paused(), true
		case ActionSeek:
			return Seeking(a.SeekTarget, StatePlaying), true
		case ActionDidStartBuffering:
			return Buffering(StatePlaying), true
		case ActionDidReachEnd:
			return Ended(), true
		case ActionDidFail:
			return Failed(a.Err), true
		case ActionAudioInterrupted, ActionDidEnterBackground:
			return Paused(), true
		}

	case StatePaused:
		switch a.Kind {
		case ActionPlay, ActionAudioResumed:
			return Playing(), true
		case ActionSeek:
			return Seeking(a.SeekTarget, StatePaused), true
		case ActionDidStartBuffering:
			return Buffering(StatePaused), true
		case ActionDidFail:
			return Failed(a.Err), true
		}

	case StateBuffering:
		switch a.Kind {
		case ActionDidFinishBuffering:
			return resume(s.ResumeTo), true
		case ActionDidFail:
			return Failed(a.Err), true
		}

	case StateSeeking:
		switch a.Kind {
		case ActionDidFinishSeeking:
			return resume(s.ResumeTo), true
		case ActionDidFail:
			return Failed(a.Err), true
		}

	case StateEnded:
		// Replay from the start.
		if a.Kind == ActionPlay {
			return Playing(), true
		}

	case StateFailed:
		if a.Kind == ActionRetry && s.Err.Recoverable() {
			return Idle(), true
		}
	}

	return State{}, false
}

func stateKindNames() []string {
	kinds := AllStateKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
