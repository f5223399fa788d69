// SPDX-License-Identifier: MIT

// Package metrics exposes prometheus instrumentation for the control layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_playback_transition_total",
		Help: "Total number of accepted playback state transitions by from, to and action",
	}, []string{"from", "to", "action"})

	rejectedActionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_playback_rejected_action_total",
		Help: "Total number of playback actions rejected by the transition table",
	}, []string{"state", "action"})

	playbackState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "playctl_playback_state",
		Help: "Current playback state (1 for the active state, 0 otherwise)",
	}, []string{"state"})
)

// RecordTransition records one accepted state transition.
func RecordTransition(from, to, action string) {
	transitionTotal.WithLabelValues(from, to, action).Inc()
}

// RecordRejectedAction records an action the transition table refused.
func RecordRejectedAction(state, action string) {
	rejectedActionTotal.WithLabelValues(state, action).Inc()
}

// SetPlaybackState marks the given state as active and all others as inactive.
func SetPlaybackState(active string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == active {
			v = 1.0
		}
		playbackState.WithLabelValues(s).Set(v)
	}
}
