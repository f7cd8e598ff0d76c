// Package metrics exposes the ambient Prometheus instrumentation for the
// registry and its projects: resident project count, evictions, and
// per-operation request counts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProjectsResident tracks the number of currently resident projects.
	ProjectsResident = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codeindexd",
		Name:      "projects_resident",
		Help:      "Number of projects currently resident in the registry.",
	})

	// SessionsOpen tracks the number of currently open sessions.
	SessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codeindexd",
		Name:      "sessions_open",
		Help:      "Number of currently open client sessions.",
	})

	// ProjectEvictions counts LRU evictions since process start.
	ProjectEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codeindexd",
		Name:      "project_evictions_total",
		Help:      "Total number of projects evicted under capacity pressure.",
	})

	// RequestsTotal counts dispatched operations by name and outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codeindexd",
		Name:      "requests_total",
		Help:      "Total dispatched operations, by operation name and outcome.",
	}, []string{"operation", "outcome"})

	// RequestDuration tracks per-operation latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codeindexd",
		Name:      "request_duration_seconds",
		Help:      "Dispatched operation latency in seconds, by operation name.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)
