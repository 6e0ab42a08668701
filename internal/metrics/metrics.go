// Package metrics declares the Prometheus collectors render jobs report to.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

// Audio mux results.
const (
	AudioMuxed    = "muxed"
	AudioSkipped  = "skipped"
	AudioDegraded = "degraded"
)

var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story2video_jobs_total",
			Help: "Total number of render jobs by outcome.",
		},
		[]string{"outcome"},
	)

	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story2video_frames_total",
			Help: "Total number of frames handed to an encoding backend.",
		},
		[]string{"backend"},
	)

	BackendFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "story2video_backend_fallbacks_total",
		Help: "Total number of jobs restarted on the software backend.",
	})

	AudioMuxTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story2video_audio_mux_total",
			Help: "Total number of audio integration attempts by result.",
		},
		[]string{"result"},
	)

	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "story2video_job_duration_seconds",
		Help:    "Wall time of completed render jobs.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})
)
