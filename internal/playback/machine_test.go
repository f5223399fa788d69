// SPDX-License-Identifier: MIT

package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachine()
	defer m.Close()

	tr, ok := m.Send(Load("https://cdn.example.com/v/1.m3u8"))
	require.True(t, ok)
	assert.Equal(t, Loading("https://cdn.example.com/v/1.m3u8"), tr.To)

	tr, ok = m.Send(DidBecomeReady())
	require.True(t, ok)
	assert.Equal(t, Ready(), tr.To)

	tr, ok = m.Send(Play())
	require.True(t, ok)
	assert.Equal(t, Playing(), tr.To)

	tr, ok = m.Send(DidStartBuffering())
	require.True(t, ok)
	assert.Equal(t, Buffering(StatePlaying), tr.To)

	tr, ok = m.Send(DidFinishBuffering())
	require.True(t, ok)
	assert.Equal(t, Playing(), tr.To)
}

func TestMachine_ResumeIntentSurvivesInterruption(t *testing.T) {
	m := NewMachine()
	defer m.Close()

	m.Send(Load("u"))
	m.Send(DidBecomeReady())
	m.Send(Play())
	m.Send(Pause())

	// Buffering from Paused resumes into Paused.
	tr, ok := m.Send(DidStartBuffering())
	require.True(t, ok)
	assert.Equal(t, StatePaused, tr.To.ResumeTo)

	tr, ok = m.Send(DidFinishBuffering())
	require.True(t, ok)
	assert.Equal(t, Paused(), tr.To)

	// Seeking from Paused resumes into Paused as well.
	tr, ok = m.Send(Seek(42 * time.Second))
	require.True(t, ok)
	assert.Equal(t, Seeking(42*time.Second, StatePaused), tr.To)

	tr, ok = m.Send(DidFinishSeeking())
	require.True(t, ok)
	assert.Equal(t, Paused(), tr.To)
}

func TestMachine_InvalidPairsRejectedAndStateUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		prepare []Action
		action  Action
	}{
		{"play from idle", nil, Play()},
		{"pause from idle", nil, Pause()},
		{"stop from idle", nil, Stop()},
		{"retry from idle", nil, Retry()},
		{"ready from idle", nil, DidBecomeReady()},
		{"load while loading", []Action{Load("u")}, Load("v")},
		{"play while loading", []Action{Load("u")}, Play()},
		{"pause while ready", []Action{Load("u"), DidBecomeReady()}, Pause()},
		{"play while playing", []Action{Load("u"), DidBecomeReady(), Play()}, Play()},
		{"finish buffering while playing", []Action{Load("u"), DidBecomeReady(), Play()}, DidFinishBuffering()},
		{"seek while buffering", []Action{Load("u"), DidBecomeReady(), Play(), DidStartBuffering()}, Seek(time.Second)},
		{"audio resume while playing", []Action{Load("u"), DidBecomeReady(), Play()}, AudioSessionResumed()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			defer m.Close()
			for _, a := range tt.prepare {
				_, ok := m.Send(a)
				require.True(t, ok, "prepare action %s", a)
			}
			before := m.CurrentState()

			assert.False(t, m.CanPerform(tt.action))
			_, ok := m.Send(tt.action)
			assert.False(t, ok)
			assert.Equal(t, before, m.CurrentState())
		})
	}
}

func TestMachine_StopFromAnywhereExceptIdle(t *testing.T) {
	prepare := map[string][]Action{
		"loading":   {Load("u")},
		"ready":     {Load("u"), DidBecomeReady()},
		"playing":   {Load("u"), DidBecomeReady(), Play()},
		"paused":    {Load("u"), DidBecomeReady(), Play(), Pause()},
		"buffering": {Load("u"), DidBecomeReady(), Play(), DidStartBuffering()},
		"seeking":   {Load("u"), DidBecomeReady(), Play(), Seek(time.Second)},
		"ended":     {Load("u"), DidBecomeReady(), Play(), DidReachEnd()},
		"failed":    {Load("u"), DidFail(LoadError("boom"))},
	}

	for name, actions := range prepare {
		t.Run(name, func(t *testing.T) {
			m := NewMachine()
			defer m.Close()
			for _, a := range actions {
				_, ok := m.Send(a)
				require.True(t, ok)
			}
			tr, ok := m.Send(Stop())
			require.True(t, ok)
			assert.Equal(t, Idle(), tr.To)
		})
	}
}

func TestMachine_RetryOnlyForRecoverableErrors(t *testing.T) {
	t.Run("network error is recoverable", func(t *testing.T) {
		m := NewMachine()
		defer m.Close()
		m.Send(Load("u"))
		_, ok := m.Send(DidFail(NetworkError("timeout")))
		require.True(t, ok)

		tr, ok := m.Send(Retry())
		require.True(t, ok)
		assert.Equal(t, Idle(), tr.To)
	})

	t.Run("drm error is not", func(t *testing.T) {
		m := NewMachine()
		defer m.Close()
		m.Send(Load("u"))
		_, ok := m.Send(DidFail(DRMError("license denied")))
		require.True(t, ok)

		assert.False(t, m.CanPerform(Retry()))
		_, ok = m.Send(Retry())
		assert.False(t, ok)
		assert.Equal(t, StateFailed, m.CurrentState().Kind)
	})
}

func TestMachine_AudioSessionInterruption(t *testing.T) {
	m := NewMachine()
	defer m.Close()
	m.Send(Load("u"))
	m.Send(DidBecomeReady())
	m.Send(Play())

	tr, ok := m.Send(AudioSessionInterrupted())
	require.True(t, ok)
	assert.Equal(t, Paused(), tr.To)

	tr, ok = m.Send(AudioSessionResumed())
	require.True(t, ok)
	assert.Equal(t, Playing(), tr.To)
}

func TestMachine_BackgroundForcesPause(t *testing.T) {
	m := NewMachine()
	defer m.Close()
	m.Send(Load("u"))
	m.Send(DidBecomeReady())
	m.Send(Play())

	tr, ok := m.Send(DidEnterBackground())
	require.True(t, ok)
	assert.Equal(t, Paused(), tr.To)
}

func TestMachine_TransitionsBroadcastInCommitOrder(t *testing.T) {
	m := NewMachine()
	defer m.Close()

	sub := m.Subscribe()
	defer sub.Close()

	m.Send(Load("u"))
	m.Send(DidBecomeReady())
	m.Send(Play())
	m.Send(Pause())

	want := []StateKind{StateLoading, StateReady, StatePlaying, StatePaused}
	for i, kind := range want {
		select {
		case tr := <-sub.C():
			assert.Equal(t, kind, tr.To.Kind, "transition %d", i)
			assert.True(t, tr.DidChangeState())
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for transition %d", i)
		}
	}
}

func TestMachine_ReplayAfterEnd(t *testing.T) {
	m := NewMachine()
	defer m.Close()
	m.Send(Load("u"))
	m.Send(DidBecomeReady())
	m.Send(Play())
	m.Send(DidReachEnd())

	tr, ok := m.Send(Play())
	require.True(t, ok)
	assert.Equal(t, Playing(), tr.To)
}

func TestTransition_DidChangeState(t *testing.T) {
	tr := Transition{From: Playing(), To: Playing()}
	assert.False(t, tr.DidChangeState())

	tr = Transition{From: Playing(), To: Paused()}
	assert.True(t, tr.DidChangeState())
}
