// Package metrics exposes Prometheus instrumentation for the
// capture/transcription pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SegmentsClosed counts speech segments closed by the segmenter,
	// including segments discarded for being too short.
	SegmentsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "willow_segments_closed_total",
		Help: "Total number of speech segments closed by the VAD.",
	})

	// SegmentsDiscarded counts segments dropped below the minimum
	// speech duration.
	SegmentsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "willow_segments_discarded_total",
		Help: "Total number of segments discarded as too short.",
	})

	// TranscriptionsAccepted counts non-empty normalized transcriptions
	// delivered to the active mode worker.
	TranscriptionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "willow_transcriptions_accepted_total",
		Help: "Total number of transcriptions delivered to mode workers.",
	})

	// CommandsExecuted counts actions spawned on behalf of matched
	// commands, smart-open and smart-search included.
	CommandsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "willow_commands_executed_total",
		Help: "Total number of commands executed.",
	})

	// DuplicatesSuppressed counts executions skipped by the
	// duplicate-suppression window.
	DuplicatesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "willow_duplicates_suppressed_total",
		Help: "Total number of executions suppressed as duplicates.",
	})

	// CaptureErrors counts fatal audio-source read failures.
	CaptureErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "willow_capture_errors_total",
		Help: "Total number of audio capture read failures.",
	})

	// TranscribeDuration observes the latency of speech-engine calls.
	TranscribeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "willow_transcribe_duration_seconds",
		Help:    "Latency of speech engine transcription calls.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)
