// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cleanupRunTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_cleanup_run_total",
		Help: "Total number of cleanup passes by trigger",
	}, []string{"trigger"})

	cleanupResultTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_cleanup_result_total",
		Help: "Total number of individual cleaner invocations by cleaner and outcome",
	}, []string{"cleaner", "outcome"})

	cleanupBytesFreed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playctl_cleanup_bytes_freed_total",
		Help: "Total bytes reclaimed per cleaner",
	}, []string{"cleaner"})
)

// RecordCleanupRun records one cleanup pass (trigger: manual, memory_warning, memory_critical).
func RecordCleanupRun(trigger string) {
	if trigger == "" {
		trigger = "unknown"
	}
	cleanupRunTotal.WithLabelValues(trigger).Inc()
}

// RecordCleanupResult records the outcome of a single cleaner invocation.
func RecordCleanupResult(cleaner string, success bool, bytesFreed uint64) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	cleanupResultTotal.WithLabelValues(cleaner, outcome).Inc()
	if bytesFreed > 0 {
		cleanupBytesFreed.WithLabelValues(cleaner).Add(float64(bytesFreed))
	}
}
