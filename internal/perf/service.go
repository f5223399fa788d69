// SPDX-License-Identifier: MIT

package perf

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/streamkit/playctl/internal/bitrate"
	"github.com/streamkit/playctl/internal/bus"
	"github.com/streamkit/playctl/internal/log"
	"github.com/streamkit/playctl/internal/memory"
	"github.com/streamkit/playctl/internal/metrics"
	"github.com/streamkit/playctl/internal/types"
)

const (
	// minWatchForRatio guards the rebuffer ratio against tiny denominators.
	minWatchForRatio = 10 * time.Second

	// minDecisionsForDowngradeAlert guards the downgrade share against
	// sessions with too few decisions to be meaningful.
	minDecisionsForDowngradeAlert = 4

	// alertThrottleWindow is how often an identical alert kind may re-fire.
	alertThrottleWindow = 30 * time.Second
)

// Snapshot is a point-in-time aggregate of the session's performance.
// Snapshots are derived on every recordable event and never persisted here.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`

	WatchDuration    time.Duration `json:"watch_duration"`
	TimeToFirstFrame time.Duration `json:"time_to_first_frame,omitempty"`
	StartupMeasured  bool          `json:"startup_measured"`

	IsBuffering            bool          `json:"is_buffering"`
	BufferingCount         int           `json:"buffering_count"`
	TotalBufferingDuration time.Duration `json:"total_buffering_duration"`
	EventsInLastMinute     int           `json:"events_in_last_minute"`
	RebufferRatio          float64       `json:"rebuffer_ratio"`

	CurrentBitrate    int64                `json:"current_bitrate"`
	Network           types.NetworkQuality `json:"network"`
	Pressure          memory.PressureLevel `json:"pressure"`
	MemoryUsedMB      uint64               `json:"memory_used_mb"`
	MemoryAvailableMB uint64               `json:"memory_available_mb"`

	BitrateDecisions  int     `json:"bitrate_decisions"`
	BitrateDowngrades int     `json:"bitrate_downgrades"`
	DowngradePercent  float64 `json:"downgrade_percent"`
}

// Service folds buffering, startup, memory, network and bitrate signals into
// snapshots and derives alerts from threshold comparisons. One playback
// session is tracked at a time.
type Service struct {
	mu     sync.Mutex
	clock  clock
	logger zerolog.Logger

	thresholds Thresholds
	buffering  *BufferingTracker
	startup    *StartupTimeTracker

	sessionID    string
	sessionStart time.Time
	active       bool

	currentBitrate int64
	network        types.NetworkQuality
	lastMemory     memory.State
	hasMemory      bool
	decisions      int
	downgrades     int

	snapshots *bus.Broadcaster[Snapshot]
	alerts    *bus.Broadcaster[Alert]
	limiters  map[AlertKind]*rate.Limiter
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger overrides the component logger.
func WithServiceLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the clock, for tests.
func WithClock(c clock) ServiceOption {
	return func(s *Service) {
		s.clock = c
		s.buffering = newBufferingTrackerWithClock(c)
		s.startup = newStartupTimeTrackerWithClock(c)
	}
}

// NewService creates an idle performance service.
func NewService(thresholds Thresholds, opts ...ServiceOption) *Service {
	s := &Service{
		clock:      realClock{},
		logger:     log.WithComponent("perf"),
		thresholds: thresholds,
		buffering:  NewBufferingTracker(),
		startup:    NewStartupTimeTracker(),
		network:    types.NetworkGood,
		snapshots:  bus.New[Snapshot]("perf_snapshot", 0),
		alerts:     bus.New[Alert]("perf_alert", 0),
		limiters:   make(map[AlertKind]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetThresholds replaces the alert boundaries at runtime.
func (s *Service) SetThresholds(t Thresholds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = t
}

// SubscribeSnapshots returns a subscription carrying per-event snapshots.
func (s *Service) SubscribeSnapshots() *bus.Subscription[Snapshot] {
	return s.snapshots.Subscribe()
}

// SubscribeAlerts returns a subscription carrying threshold alerts.
func (s *Service) SubscribeAlerts() *bus.Subscription[Alert] {
	return s.alerts.Subscribe()
}

// StartSession begins tracking a fresh session and returns its ID. Any
// previous session's counters are discarded.
func (s *Service) StartSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = uuid.NewString()
	s.sessionStart = s.clock.Now()
	s.active = true
	s.currentBitrate = 0
	s.decisions = 0
	s.downgrades = 0
	s.buffering.Reset()
	s.startup.Reset()

	s.logger.Info().
		Str(log.FieldEvent, "perf.session_started").
		Str(log.FieldSessionID, s.sessionID).
		Msg("performance session started")
	return s.sessionID
}

// EndSession stops tracking. Counters stay readable until the next start.
func (s *Service) EndSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	s.logger.Info().
		Str(log.FieldEvent, "perf.session_ended").
		Str(log.FieldSessionID, s.sessionID).
		Msg("performance session ended")
}

// RecordLoadStart marks the beginning of media loading.
func (s *Service) RecordLoadStart() {
	s.startup.RecordLoadStart()
	s.recordEvent()
}

// RecordFirstFrame marks the first rendered frame.
func (s *Service) RecordFirstFrame() {
	s.startup.RecordFirstFrame()
	s.recordEvent()
}

// BufferingStarted marks a stall. Re-entrant calls are no-ops.
func (s *Service) BufferingStarted() {
	if s.buffering.BufferingStarted() {
		s.recordEvent()
	}
}

// BufferingEnded closes a stall and returns the completed event, if any.
func (s *Service) BufferingEnded() (BufferingEvent, bool) {
	ev, ok := s.buffering.BufferingEnded()
	if ok {
		s.recordEvent()
	}
	return ev, ok
}

// UpdateMemoryState feeds the latest classified memory state.
func (s *Service) UpdateMemoryState(st memory.State) {
	s.mu.Lock()
	s.lastMemory = st
	s.hasMemory = true
	s.mu.Unlock()
	s.recordEvent()
}

// UpdateNetworkQuality feeds the latest network classification.
func (s *Service) UpdateNetworkQuality(q types.NetworkQuality) {
	s.mu.Lock()
	s.network = q
	s.mu.Unlock()
	s.recordEvent()
}

// RecordBitrateDecision feeds one bitrate decision outcome.
func (s *Service) RecordBitrateDecision(d bitrate.Decision) {
	s.mu.Lock()
	s.decisions++
	if d.Verb == bitrate.VerbDowngrade {
		s.downgrades++
	}
	s.currentBitrate = d.Level.Bitrate
	s.mu.Unlock()

	metrics.RecordBitrateDecision(string(d.Verb), d.Reason)
	s.recordEvent()
}

// Snapshot derives the current aggregate without publishing it.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close tears down the broadcast channels.
func (s *Service) Close() {
	s.snapshots.Close()
	s.alerts.Close()
}

func (s *Service) snapshotLocked() Snapshot {
	now := s.clock.Now()
	snap := Snapshot{
		SessionID: s.sessionID,
		Timestamp: now,
		Network:   s.network,
	}
	if s.active {
		snap.WatchDuration = now.Sub(s.sessionStart)
	}
	if ttff, ok := s.startup.TimeToFirstFrame(); ok {
		snap.TimeToFirstFrame = ttff
		snap.StartupMeasured = true
	}

	snap.IsBuffering = s.buffering.IsBuffering()
	snap.BufferingCount = s.buffering.Count()
	snap.TotalBufferingDuration = s.buffering.TotalDuration()
	snap.EventsInLastMinute = s.buffering.EventsInLastMinute()
	if snap.WatchDuration > 0 {
		snap.RebufferRatio = snap.TotalBufferingDuration.Seconds() / snap.WatchDuration.Seconds()
	}

	snap.CurrentBitrate = s.currentBitrate
	if s.hasMemory {
		snap.Pressure = s.lastMemory.Pressure
		snap.MemoryUsedMB = s.lastMemory.UsedBytes / (1024 * 1024)
		snap.MemoryAvailableMB = s.lastMemory.AvailableBytes / (1024 * 1024)
	}

	snap.BitrateDecisions = s.decisions
	snap.BitrateDowngrades = s.downgrades
	if s.decisions > 0 {
		snap.DowngradePercent = float64(s.downgrades) / float64(s.decisions) * 100
	}
	return snap
}

// recordEvent derives a snapshot, publishes it, and evaluates alerts.
func (s *Service) recordEvent() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	// Published under the lock so subscribers observe commit order.
	s.snapshots.Publish(snap)
	s.mu.Unlock()

	s.evaluate(snap)
}

func (s *Service) evaluate(snap Snapshot) {
	t := s.thresholdsCopy()

	if snap.StartupMeasured && snap.TimeToFirstFrame > t.MaxStartupTime {
		s.emit(Alert{
			Kind:      AlertSlowStartup,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("time to first frame %.2fs exceeds %.2fs", snap.TimeToFirstFrame.Seconds(), t.MaxStartupTime.Seconds()),
			Value:     snap.TimeToFirstFrame.Seconds(),
			Threshold: t.MaxStartupTime.Seconds(),
			SessionID: snap.SessionID,
			Timestamp: snap.Timestamp,
		})
	}

	if snap.WatchDuration >= minWatchForRatio && snap.RebufferRatio > t.MaxRebufferRatio {
		s.emit(Alert{
			Kind:      AlertHighRebufferRatio,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("rebuffer ratio %.3f exceeds %.3f", snap.RebufferRatio, t.MaxRebufferRatio),
			Value:     snap.RebufferRatio,
			Threshold: t.MaxRebufferRatio,
			SessionID: snap.SessionID,
			Timestamp: snap.Timestamp,
		})
	}

	if snap.TotalBufferingDuration > t.MaxBufferingDuration {
		s.emit(Alert{
			Kind:      AlertLongBuffering,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("total buffering %.1fs exceeds %.1fs", snap.TotalBufferingDuration.Seconds(), t.MaxBufferingDuration.Seconds()),
			Value:     snap.TotalBufferingDuration.Seconds(),
			Threshold: t.MaxBufferingDuration.Seconds(),
			SessionID: snap.SessionID,
			Timestamp: snap.Timestamp,
		})
	}

	if snap.EventsInLastMinute > t.MaxEventsPerMinute {
		s.emit(Alert{
			Kind:      AlertFrequentBuffering,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("%d buffering events in the last minute exceeds %d", snap.EventsInLastMinute, t.MaxEventsPerMinute),
			Value:     float64(snap.EventsInLastMinute),
			Threshold: float64(t.MaxEventsPerMinute),
			SessionID: snap.SessionID,
			Timestamp: snap.Timestamp,
		})
	}

	if snap.MemoryUsedMB > t.MaxMemoryUsedMB {
		s.emit(Alert{
			Kind:      AlertHighMemory,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("memory usage %dMB exceeds %dMB", snap.MemoryUsedMB, t.MaxMemoryUsedMB),
			Value:     float64(snap.MemoryUsedMB),
			Threshold: float64(t.MaxMemoryUsedMB),
			SessionID: snap.SessionID,
			Timestamp: snap.Timestamp,
		})
	}

	if snap.BitrateDecisions >= minDecisionsForDowngradeAlert {
		switch {
		case snap.DowngradePercent >= t.DowngradeCriticalPercent:
			s.emit(Alert{
				Kind:      AlertQualityDegraded,
				Severity:  SeverityCritical,
				Message:   fmt.Sprintf("%.0f%% of bitrate decisions were downgrades", snap.DowngradePercent),
				Value:     snap.DowngradePercent,
				Threshold: t.DowngradeCriticalPercent,
				SessionID: snap.SessionID,
				Timestamp: snap.Timestamp,
			})
		case snap.DowngradePercent >= t.DowngradeWarningPercent:
			s.emit(Alert{
				Kind:      AlertQualityDegraded,
				Severity:  SeverityWarning,
				Message:   fmt.Sprintf("%.0f%% of bitrate decisions were downgrades", snap.DowngradePercent),
				Value:     snap.DowngradePercent,
				Threshold: t.DowngradeWarningPercent,
				SessionID: snap.SessionID,
				Timestamp: snap.Timestamp,
			})
		}
	}
}

func (s *Service) thresholdsCopy() Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thresholds
}

// emit publishes an alert unless the same kind fired within the throttle
// window.
func (s *Service) emit(a Alert) {
	s.mu.Lock()
	lim, ok := s.limiters[a.Kind]
	if !ok {
		lim = rate.NewLimiter(rate.Every(alertThrottleWindow), 1)
		s.limiters[a.Kind] = lim
	}
	s.mu.Unlock()

	if !lim.Allow() {
		return
	}

	metrics.RecordAlert(string(a.Kind), string(a.Severity))

	s.logger.Warn().
		Str(log.FieldEvent, "perf.alert").
		Str("kind", string(a.Kind)).
		Str("severity", string(a.Severity)).
		Float64("value", a.Value).
		Float64("threshold", a.Threshold).
		Str(log.FieldSessionID, a.SessionID).
		Msg(a.Message)

	s.alerts.Publish(a)
}
