// SPDX-License-Identifier: MIT
package main

import (
	"sync"

	"github.com/streamkit/playctl/internal/buffer"
	"github.com/streamkit/playctl/internal/bus"
	"github.com/streamkit/playctl/internal/memory"
	"github.com/streamkit/playctl/internal/perf"
	"github.com/streamkit/playctl/internal/playback"
)

// wiring connects the component streams: memory states feed the buffer
// manager and the performance service, and playback transitions feed the
// session trackers.
type wiring struct {
	machine   *playback.Machine
	monitor   *memory.Monitor
	bufferMgr *buffer.Manager
	perf      *perf.Service

	memSub *bus.Subscription[memory.State]
	trSub  *bus.Subscription[playback.Transition]
	wg     sync.WaitGroup
}

func newWiring(machine *playback.Machine, monitor *memory.Monitor, bufferMgr *buffer.Manager, perfSvc *perf.Service) *wiring {
	return &wiring{
		machine:   machine,
		monitor:   monitor,
		bufferMgr: bufferMgr,
		perf:      perfSvc,
	}
}

func (w *wiring) start() {
	w.memSub = w.monitor.Subscribe()
	w.trSub = w.machine.Subscribe()

	w.wg.Add(2)
	go w.forwardMemory()
	go w.forwardTransitions()
}

func (w *wiring) stop() {
	w.memSub.Close()
	w.trSub.Close()
	w.wg.Wait()
}

func (w *wiring) forwardMemory() {
	defer w.wg.Done()
	for st := range w.memSub.C() {
		w.bufferMgr.UpdateMemoryState(st)
		w.perf.UpdateMemoryState(st)
	}
}

func (w *wiring) forwardTransitions() {
	defer w.wg.Done()
	for tr := range w.trSub.C() {
		switch tr.To.Kind {
		case playback.StateLoading:
			w.perf.StartSession()
			w.perf.RecordLoadStart()
		case playback.StatePlaying:
			if tr.From.Kind == playback.StateReady {
				w.perf.RecordFirstFrame()
			}
		case playback.StateBuffering:
			w.perf.BufferingStarted()
		case playback.StateIdle, playback.StateEnded, playback.StateFailed:
			w.perf.EndSession()
		}

		if tr.From.Kind == playback.StateBuffering && tr.To.Kind != playback.StateBuffering {
			w.perf.BufferingEnded()
		}
	}
}
