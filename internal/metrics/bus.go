// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	busDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_bus_dropped_total",
		Help: "Total number of broadcast messages dropped by topic and reason",
	}, []string{"topic", "reason"})
)

// IncBusDrop records a dropped broadcast message for the given topic.
func IncBusDrop(topic string) {
	IncBusDropReason(topic, "full")
}

// IncBusDropReason records a dropped broadcast message with a concrete reason.
func IncBusDropReason(topic, reason string) {
	if topic == "" {
		topic = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	busDroppedTotal.WithLabelValues(topic, reason).Inc()
}
