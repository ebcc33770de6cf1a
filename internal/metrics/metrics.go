// Package metrics defines the engine's Prometheus collectors. They are
// registered on the default registry and exposed by the HTTP API's
// /metrics endpoint when that listener is enabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Captures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipvault_captures_total",
		Help: "Clipboard snapshots captured after a change notification.",
	})
	CaptureRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipvault_capture_retries_total",
		Help: "Capture attempts retried because the clipboard was busy.",
	})
	Duplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipvault_duplicates_total",
		Help: "Captures dropped as identical to the current baseline or top entry.",
	})
	Inserts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipvault_inserts_total",
		Help: "History entries inserted.",
	})
	Evictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipvault_evictions_total",
		Help: "History entries evicted at capacity.",
	})
	Restores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipvault_restores_total",
		Help: "Entries written back to the system clipboard.",
	})
	PersistErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipvault_persist_errors_total",
		Help: "Persistence operations dropped due to storage errors.",
	})
)
