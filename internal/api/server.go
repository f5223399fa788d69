// SPDX-License-Identifier: MIT

// Package api exposes the daemon's debug and control surface over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/streamkit/playctl/internal/buffer"
	"github.com/streamkit/playctl/internal/cleanup"
	"github.com/streamkit/playctl/internal/log"
	"github.com/streamkit/playctl/internal/memory"
	"github.com/streamkit/playctl/internal/perf"
	"github.com/streamkit/playctl/internal/playback"
)

// Server wires the control-layer components to HTTP handlers.
type Server struct {
	logger zerolog.Logger

	machine     *playback.Machine
	perf        *perf.Service
	bufferMgr   *buffer.Manager
	monitor     *memory.Monitor
	coordinator *cleanup.Coordinator

	version           string
	requestsPerMinute int
}

// Options configures a Server.
type Options struct {
	Machine           *playback.Machine
	Perf              *perf.Service
	BufferManager     *buffer.Manager
	Monitor           *memory.Monitor
	Coordinator       *cleanup.Coordinator
	Version           string
	RequestsPerMinute int
}

// New creates a Server.
func New(opts Options) *Server {
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 600
	}
	return &Server{
		logger:            log.WithComponent("api"),
		machine:           opts.Machine,
		perf:              opts.Perf,
		bufferMgr:         opts.BufferManager,
		monitor:           opts.Monitor,
		coordinator:       opts.Coordinator,
		version:           opts.Version,
		requestsPerMinute: rpm,
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httprate.Limit(
		s.requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded"}`))
		}),
	))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/playback", s.handlePlaybackState)
		r.Post("/playback/actions", s.handlePlaybackAction)
		r.Get("/memory", s.handleMemoryState)
		r.Get("/buffer", s.handleBufferConfig)
		r.Get("/perf", s.handlePerfSnapshot)
		r.Post("/cleanup", s.handleCleanup)
		r.Get("/events", s.handleEvents)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   s.version,
		"timestamp": time.Now(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	checks := map[string]bool{
		"memory_monitor": s.monitor.Running(),
		"auto_cleanup":   s.coordinator.AutoCleanupEnabled(),
	}
	ready := true
	for _, ok := range checks {
		if !ok {
			ready = false
		}
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{
		"ready":     ready,
		"checks":    checks,
		"timestamp": time.Now(),
	})
}

func (s *Server) handlePlaybackState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.machine.CurrentState())
}

// actionRequest is the wire form of a playback action.
type actionRequest struct {
	Kind         string `json:"kind"`
	URL          string `json:"url,omitempty"`
	SeekTargetMS int64  `json:"seek_target_ms,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorReason  string `json:"error_reason,omitempty"`
}

func (r actionRequest) toAction() (playback.Action, error) {
	kind := playback.ActionKind(r.Kind)
	action := playback.Action{Kind: kind}
	switch kind {
	case playback.ActionLoad:
		if r.URL == "" {
			return playback.Action{}, fmt.Errorf("load requires a url")
		}
		action.URL = r.URL
	case playback.ActionSeek:
		action.SeekTarget = time.Duration(r.SeekTargetMS) * time.Millisecond
	case playback.ActionDidFail:
		action.Err = playback.Error{
			Kind:   playback.ErrorKind(r.ErrorKind),
			Reason: r.ErrorReason,
		}
	case playback.ActionPlay, playback.ActionPause, playback.ActionStop, playback.ActionRetry,
		playback.ActionDidBecomeReady, playback.ActionDidStartBuffering,
		playback.ActionDidFinishBuffering, playback.ActionDidFinishSeeking,
		playback.ActionDidReachEnd, playback.ActionAudioInterrupted,
		playback.ActionAudioResumed, playback.ActionDidEnterBackground:
	default:
		return playback.Action{}, fmt.Errorf("unknown action kind %q", r.Kind)
	}
	return action, nil
}

func (s *Server) handlePlaybackAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}

	action, err := req.toAction()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tr, ok := s.machine.Send(action)
	if !ok {
		s.writeJSON(w, http.StatusConflict, map[string]any{
			"accepted": false,
			"state":    s.machine.CurrentState(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"accepted":   true,
		"transition": tr,
	})
}

func (s *Server) handleMemoryState(w http.ResponseWriter, _ *http.Request) {
	st, err := s.monitor.CurrentMemoryState()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleBufferConfig(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.bufferMgr.Current())
}

func (s *Server) handlePerfSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.perf.Snapshot())
}

// cleanupRequest optionally bounds the pass by a priority ceiling.
type cleanupRequest struct {
	Ceiling string `json:"ceiling,omitempty"`
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
			return
		}
	}

	var results []cleanup.Result
	if req.Ceiling == "" {
		results = s.coordinator.CleanupAll(r.Context())
	} else {
		ceiling := cleanup.Priority(req.Ceiling)
		if !ceiling.IsValid() {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid ceiling %q", req.Ceiling))
			return
		}
		results = s.coordinator.CleanupUpTo(r.Context(), ceiling)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Str(log.FieldEvent, "api.write_failed").Msg("response write failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
