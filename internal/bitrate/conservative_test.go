// SPDX-License-Identifier: MIT

package bitrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamkit/playctl/internal/types"
)

func ladder() []Level {
	return []Level{
		{Bitrate: 400_000, Label: "240p"},
		{Bitrate: 800_000, Label: "360p"},
		{Bitrate: 1_500_000, Label: "480p"},
		{Bitrate: 3_000_000, Label: "720p"},
		{Bitrate: 6_000_000, Label: "1080p"},
		{Bitrate: 12_000_000, Label: "4k"},
	}
}

func TestNewConservative_RejectsEmptyLadder(t *testing.T) {
	_, err := NewConservative(nil)
	require.Error(t, err)
}

func TestNewConservative_SortsLadder(t *testing.T) {
	s, err := NewConservative([]Level{
		{Bitrate: 6_000_000, Label: "1080p"},
		{Bitrate: 400_000, Label: "240p"},
		{Bitrate: 1_500_000, Label: "480p"},
	})
	require.NoError(t, err)

	levels := s.Levels()
	assert.Equal(t, "240p", levels[0].Label)
	assert.Equal(t, "1080p", levels[2].Label)
}

func TestConservative_InitialLevelBuckets(t *testing.T) {
	s, err := NewConservative(ladder())
	require.NoError(t, err)

	tests := []struct {
		network types.NetworkQuality
		label   string
	}{
		{types.NetworkOffline, "240p"},
		{types.NetworkPoor, "240p"},
		{types.NetworkFair, "480p"},  // index 6/3 = 2
		{types.NetworkGood, "1080p"}, // index 2*6/3 = 4
		{types.NetworkExcellent, "4k"},
	}
	for _, tt := range tests {
		t.Run(string(tt.network), func(t *testing.T) {
			assert.Equal(t, tt.label, s.InitialLevel(tt.network).Label)
		})
	}
}

func TestConservative_DowngradeOnRebuffering(t *testing.T) {
	s, err := NewConservative(ladder())
	require.NoError(t, err)

	d := s.Decide(Conditions{
		Current:       Level{Bitrate: 3_000_000, Label: "720p"},
		BufferHealth:  0.9,
		RebufferRatio: 0.08,
		Network:       types.NetworkExcellent,
	})
	assert.Equal(t, VerbDowngrade, d.Verb)
	assert.Equal(t, "480p", d.Level.Label)
	assert.Contains(t, d.Reason, "rebuffer ratio")
}

func TestConservative_DowngradeOnPoorNetwork(t *testing.T) {
	s, err := NewConservative(ladder())
	require.NoError(t, err)

	d := s.Decide(Conditions{
		Current:      Level{Bitrate: 1_500_000, Label: "480p"},
		BufferHealth: 1.0,
		Network:      types.NetworkPoor,
	})
	assert.Equal(t, VerbDowngrade, d.Verb)
	assert.Equal(t, "360p", d.Level.Label)
	assert.Contains(t, d.Reason, "network")
}

func TestConservative_DowngradeStopsAtLowestLevel(t *testing.T) {
	s, err := NewConservative(ladder())
	require.NoError(t, err)

	d := s.Decide(Conditions{
		Current:       Level{Bitrate: 400_000, Label: "240p"},
		RebufferRatio: 0.5,
		Network:       types.NetworkOffline,
	})
	assert.Equal(t, VerbMaintain, d.Verb)
	assert.Equal(t, "240p", d.Level.Label)
}

func TestConservative_UpgradeOnlyFiresOnGoodNetwork(t *testing.T) {
	s, err := NewConservative(ladder())
	require.NoError(t, err)

	current := Level{Bitrate: 1_500_000, Label: "480p"}

	// Fair network passes the loose check but must not actually upgrade.
	d := s.Decide(Conditions{Current: current, BufferHealth: 0.9, Network: types.NetworkFair})
	assert.Equal(t, VerbMaintain, d.Verb)
	assert.Equal(t, "480p", d.Level.Label)

	// Good network with the same buffer health steps up exactly one level.
	d = s.Decide(Conditions{Current: current, BufferHealth: 0.9, Network: types.NetworkGood})
	assert.Equal(t, VerbUpgrade, d.Verb)
	assert.Equal(t, "720p", d.Level.Label)
}

func TestConservative_UpgradeRequiresBufferHealth(t *testing.T) {
	s, err := NewConservative(ladder())
	require.NoError(t, err)

	d := s.Decide(Conditions{
		Current:      Level{Bitrate: 1_500_000, Label: "480p"},
		BufferHealth: 0.5,
		Network:      types.NetworkExcellent,
	})
	assert.Equal(t, VerbMaintain, d.Verb)
}

func TestConservative_UpgradeStopsAtHighestLevel(t *testing.T) {
	s, err := NewConservative(ladder())
	require.NoError(t, err)

	d := s.Decide(Conditions{
		Current:      Level{Bitrate: 12_000_000, Label: "4k"},
		BufferHealth: 1.0,
		Network:      types.NetworkExcellent,
	})
	assert.Equal(t, VerbMaintain, d.Verb)
	assert.Equal(t, "4k", d.Level.Label)
}

func TestConservative_UnknownCurrentReanchors(t *testing.T) {
	s, err := NewConservative(ladder())
	require.NoError(t, err)

	d := s.Decide(Conditions{
		Current:      Level{Bitrate: 999, Label: "bogus"},
		BufferHealth: 1.0,
		Network:      types.NetworkFair,
	})
	assert.Equal(t, VerbMaintain, d.Verb)
	assert.Equal(t, "480p", d.Level.Label)
}

func TestConservative_CustomThresholds(t *testing.T) {
	s, err := NewConservative(ladder(),
		WithUpgradeBufferHealth(0.5),
		WithDowngradeRebufferRatio(0.2))
	require.NoError(t, err)

	// Ratio below the custom threshold no longer forces a downgrade.
	d := s.Decide(Conditions{
		Current:       Level{Bitrate: 1_500_000, Label: "480p"},
		BufferHealth:  0.6,
		RebufferRatio: 0.1,
		Network:       types.NetworkGood,
	})
	assert.Equal(t, VerbUpgrade, d.Verb)
}
