// Package metrics provides Prometheus metrics for the tracker and the progress server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels stay low-cardinality: no segment or user ids.

var (
	// Tracker

	// TicksTotal counts telemetry ticks by what the tracker did with them.
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtrack_ticks_total",
		Help: "Total number of telemetry ticks, by outcome (dropped, control, throttled, deferred, evaluated, synced).",
	}, []string{"outcome"})

	// SegmentsMarkedTotal counts segments that transitioned to watched.
	SegmentsMarkedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidtrack_segments_marked_total",
		Help: "Total number of segments newly marked as watched.",
	})

	// SyncRequestsTotal counts outbound progress sync calls by result.
	SyncRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtrack_sync_requests_total",
		Help: "Total number of outbound progress sync calls, by result (ok, error).",
	}, []string{"result"})

	// CacheWritesTotal counts persisted snapshot writes by result.
	CacheWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtrack_cache_writes_total",
		Help: "Total number of persisted segment snapshot writes, by result (ok, error).",
	}, []string{"result"})

	// SeeksTotal counts seek requests by how they settled.
	SeeksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtrack_seeks_total",
		Help: "Total number of segment seeks, by result (ok, pause_failed, seek_failed, play_failed).",
	}, []string{"result"})

	// Server

	// ProgressUpdatesTotal counts progress updates received by the server.
	ProgressUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtrack_progress_updates_total",
		Help: "Total number of progress updates received, by status (saved, anonymous, rejected).",
	}, []string{"status"})

	// CompletionsTotal counts first-time chapter and course completions.
	CompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidtrack_completions_total",
		Help: "Total number of first-time completions, by level (chapter, course).",
	}, []string{"level"})
)

// Result maps an error to the "ok"/"error" label used by the result vectors.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
