// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	memoryPressure = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playctl_memory_pressure_level",
		Help: "Current classified memory pressure (0=normal, 1=warning, 2=critical)",
	})

	memoryAvailableBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playctl_memory_available_bytes",
		Help: "Available system memory from the last sample",
	})

	bufferStrategy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "playctl_buffer_strategy",
		Help: "Current buffer strategy (1 for the active strategy, 0 otherwise)",
	}, []string{"strategy"})

	bufferForwardSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playctl_buffer_forward_seconds",
		Help: "Preferred forward buffer duration from the last configuration",
	})

	bitrateDecisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_bitrate_decision_total",
		Help: "Total number of bitrate decisions by verb and reason",
	}, []string{"verb", "reason"})

	bufferingEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playctl_buffering_events_total",
		Help: "Total number of completed buffering intervals",
	})

	bufferingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playctl_buffering_duration_seconds",
		Help:    "Duration of completed buffering intervals",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	startupSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playctl_time_to_first_frame_seconds",
		Help:    "Observed time from load start to first rendered frame",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	alertTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_performance_alert_total",
		Help: "Total number of emitted performance alerts by kind and severity",
	}, []string{"kind", "severity"})
)

// SetMemoryPressure records the classified pressure level and raw availability.
func SetMemoryPressure(level int, availableBytes uint64) {
	memoryPressure.Set(float64(level))
	memoryAvailableBytes.Set(float64(availableBytes))
}

// SetBufferConfiguration records the active buffer strategy and duration.
func SetBufferConfiguration(active string, all []string, forwardSeconds float64) {
	for _, s := range all {
		v := 0.0
		if s == active {
			v = 1.0
		}
		bufferStrategy.WithLabelValues(s).Set(v)
	}
	bufferForwardSeconds.Set(forwardSeconds)
}

// RecordBitrateDecision records one bitrate decision outcome.
func RecordBitrateDecision(verb, reason string) {
	if reason == "" {
		reason = "none"
	}
	bitrateDecisionTotal.WithLabelValues(verb, reason).Inc()
}

// RecordBufferingInterval records one completed buffering interval.
func RecordBufferingInterval(seconds float64) {
	bufferingEventsTotal.Inc()
	bufferingSeconds.Observe(seconds)
}

// RecordStartupTime records an observed time-to-first-frame.
func RecordStartupTime(seconds float64) {
	startupSeconds.Observe(seconds)
}

// RecordAlert records an emitted performance alert.
func RecordAlert(kind, severity string) {
	alertTotal.WithLabelValues(kind, severity).Inc()
}
