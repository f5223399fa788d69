// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamkit/playctl/internal/bitrate"
	"github.com/streamkit/playctl/internal/buffer"
	"github.com/streamkit/playctl/internal/config"
	ctllog "github.com/streamkit/playctl/internal/log"
	"github.com/streamkit/playctl/internal/memory"
	"github.com/streamkit/playctl/internal/perf"
	"github.com/streamkit/playctl/internal/platform"
	"github.com/streamkit/playctl/internal/playback"
	"github.com/streamkit/playctl/internal/types"
)

// simulator drives a synthetic media pipeline: it loads a stream, flips
// network quality, scripts memory pressure and occasional stalls, and runs
// the bitrate strategy at each decision point. Useful for demos and for
// watching the control loop end to end.
type simulator struct {
	machine    *playback.Machine
	perf       *perf.Service
	bufferMgr  *buffer.Manager
	holder     *config.Holder
	memReader  *platform.AdjustableReader
	logger     zerolog.Logger
	rng        *rand.Rand
	qualities  []types.NetworkQuality
	currentIdx int
}

func newSimulator(machine *playback.Machine, perfSvc *perf.Service, bufferMgr *buffer.Manager,
	holder *config.Holder, memReader *platform.AdjustableReader) *simulator {
	return &simulator{
		machine:   machine,
		perf:      perfSvc,
		bufferMgr: bufferMgr,
		holder:    holder,
		memReader: memReader,
		logger:    ctllog.WithComponent("simulator"),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		qualities: types.AllNetworkQualities(),
		// Start at Good.
		currentIdx: 3,
	}
}

func (s *simulator) run(ctx context.Context) {
	cfg := s.holder.Get()
	strategy, err := bitrate.NewConservative(cfg.Ladder,
		bitrate.WithUpgradeBufferHealth(cfg.UpgradeBufferHealth),
		bitrate.WithDowngradeRebufferRatio(cfg.DowngradeRebufferRatio))
	if err != nil {
		s.logger.Error().Err(err).Msg("simulator disabled: invalid ladder")
		return
	}

	s.machine.Send(playback.Load("https://cdn.example.com/live/main.m3u8"))
	s.machine.Send(playback.DidBecomeReady())
	s.machine.Send(playback.Play())

	network := types.NetworkGood
	current := strategy.InitialLevel(network)
	s.logger.Info().
		Str(ctllog.FieldEvent, "simulator.started").
		Str(ctllog.FieldBitrate, current.String()).
		Msg("synthetic pipeline running")

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.machine.Send(playback.Stop())
			return
		case <-ticker.C:
		}

		network = s.wanderNetwork()
		s.bufferMgr.UpdateNetworkQuality(network)
		s.perf.UpdateNetworkQuality(network)
		s.wanderMemory(network)

		// Occasional stall on a weak link.
		if network.AtMost(types.NetworkPoor) && s.rng.Intn(2) == 0 {
			s.machine.Send(playback.DidStartBuffering())
			time.Sleep(time.Duration(500+s.rng.Intn(1500)) * time.Millisecond)
			s.machine.Send(playback.DidFinishBuffering())
		}

		snap := s.perf.Snapshot()
		decision := strategy.Decide(bitrate.Conditions{
			Current:       current,
			BufferHealth:  s.bufferHealth(network),
			RebufferRatio: snap.RebufferRatio,
			Network:       network,
		})
		current = decision.Level
		s.perf.RecordBitrateDecision(decision)
	}
}

// wanderNetwork randomly steps quality by one level, bounded at the ends.
func (s *simulator) wanderNetwork() types.NetworkQuality {
	step := s.rng.Intn(3) - 1
	s.currentIdx += step
	if s.currentIdx < 0 {
		s.currentIdx = 0
	}
	if s.currentIdx >= len(s.qualities) {
		s.currentIdx = len(s.qualities) - 1
	}
	return s.qualities[s.currentIdx]
}

// wanderMemory scripts available memory: it shrinks while the network is
// healthy (more aggressive buffering) and recovers otherwise.
func (s *simulator) wanderMemory(network types.NetworkQuality) {
	var available uint64
	if network.AtLeast(types.NetworkGood) {
		available = uint64(30+s.rng.Intn(120)) << 20
	} else {
		available = uint64(200+s.rng.Intn(1800)) << 20
	}
	s.memReader.Set(memory.Sample{
		AvailableBytes: available,
		TotalBytes:     8 << 30,
		UsedBytes:      8<<30 - available,
	})
}

// bufferHealth approximates fullness from link quality with jitter.
func (s *simulator) bufferHealth(network types.NetworkQuality) float64 {
	base := 0.2 + 0.2*float64(s.indexOf(network))
	h := base + s.rng.Float64()*0.2
	if h > 1 {
		h = 1
	}
	return h
}

func (s *simulator) indexOf(q types.NetworkQuality) int {
	for i, v := range s.qualities {
		if v == q {
			return i
		}
	}
	return 0
}
