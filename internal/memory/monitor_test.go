// SPDX-License-Identifier: MIT

package memory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// adjustableReader returns a reader whose sample can be swapped at runtime.
func adjustableReader(initial Sample) (ReaderFunc, func(Sample)) {
	var mu sync.Mutex
	sample := initial
	read := func() (Sample, error) {
		mu.Lock()
		defer mu.Unlock()
		return sample, nil
	}
	set := func(s Sample) {
		mu.Lock()
		defer mu.Unlock()
		sample = s
	}
	return read, set
}

func TestMonitor_PublishesOnlyPressureChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	read, set := adjustableReader(Sample{AvailableBytes: 2 << 30, TotalBytes: 8 << 30})
	m := NewMonitor(read, DefaultThresholds(), WithPollInterval(5*time.Millisecond))
	defer m.Close()

	sub := m.Subscribe()
	defer sub.Close()

	m.StartMonitoring()
	require.True(t, m.Running())

	// Baseline sample arrives once even though polling continues.
	st := waitForState(t, sub)
	assert.Equal(t, PressureNormal, st.Pressure)
	assertQuiet(t, sub, 50*time.Millisecond)

	// Dropping to 40MB available crosses into Critical.
	set(Sample{AvailableBytes: 40 << 20, TotalBytes: 8 << 30})
	st = waitForState(t, sub)
	assert.Equal(t, PressureCritical, st.Pressure)
	assert.Equal(t, uint64(40<<20), st.AvailableBytes)
	assertQuiet(t, sub, 50*time.Millisecond)

	m.StopMonitoring()
	assert.False(t, m.Running())
}

func TestMonitor_StartStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	read, _ := adjustableReader(Sample{AvailableBytes: 1 << 30})
	m := NewMonitor(read, DefaultThresholds(), WithPollInterval(5*time.Millisecond))
	defer m.Close()

	m.StartMonitoring()
	m.StartMonitoring()
	require.True(t, m.Running())

	m.StopMonitoring()
	m.StopMonitoring()
	assert.False(t, m.Running())
}

func TestMonitor_CurrentMemoryStateWhileStopped(t *testing.T) {
	read, _ := adjustableReader(Sample{AvailableBytes: 75 << 20, TotalBytes: 4 << 30})
	m := NewMonitor(read, DefaultThresholds())
	defer m.Close()

	st, err := m.CurrentMemoryState()
	require.NoError(t, err)
	assert.Equal(t, PressureWarning, st.Pressure)
	assert.Equal(t, uint64(75<<20), st.AvailableBytes)
}

func TestMonitor_CurrentMemoryStateReturnsReaderError(t *testing.T) {
	m := NewMonitor(func() (Sample, error) {
		return Sample{}, errors.New("sysinfo unavailable")
	}, DefaultThresholds())
	defer m.Close()

	_, err := m.CurrentMemoryState()
	assert.Error(t, err)
}

func TestMonitor_ReaderErrorsDoNotStopPolling(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	fail := true
	read := func() (Sample, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return Sample{}, errors.New("transient")
		}
		return Sample{AvailableBytes: 30 << 20}, nil
	}

	m := NewMonitor(read, DefaultThresholds(), WithPollInterval(5*time.Millisecond))
	defer m.Close()

	sub := m.Subscribe()
	defer sub.Close()

	m.StartMonitoring()

	mu.Lock()
	fail = false
	mu.Unlock()

	st := waitForState(t, sub)
	assert.Equal(t, PressureCritical, st.Pressure)

	m.StopMonitoring()
}

func TestMonitor_SetThresholdsReclassifies(t *testing.T) {
	defer goleak.VerifyNone(t)

	read, _ := adjustableReader(Sample{AvailableBytes: 150 << 20})
	m := NewMonitor(read, DefaultThresholds(), WithPollInterval(5*time.Millisecond))
	defer m.Close()

	sub := m.Subscribe()
	defer sub.Close()

	m.StartMonitoring()
	st := waitForState(t, sub)
	require.Equal(t, PressureNormal, st.Pressure)

	// Raising the warning boundary above the sample flips the level.
	m.SetThresholds(Thresholds{WarningAvailableMB: 200, CriticalAvailableMB: 100})
	st = waitForState(t, sub)
	assert.Equal(t, PressureWarning, st.Pressure)

	m.StopMonitoring()
}

func waitForState(t *testing.T, sub interface{ C() <-chan State }) State {
	t.Helper()
	select {
	case st := <-sub.C():
		return st
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for memory state")
		return State{}
	}
}

func assertQuiet(t *testing.T, sub interface{ C() <-chan State }, d time.Duration) {
	t.Helper()
	select {
	case st := <-sub.C():
		t.Fatalf("unexpected state %+v", st)
	case <-time.After(d):
	}
}
