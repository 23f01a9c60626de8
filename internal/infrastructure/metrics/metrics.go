// Package metrics provides Prometheus metrics for the hostess-api service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsProcessed counts processed conversation turns by response intent.
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostess_turns_processed_total",
			Help: "Total number of conversation turns processed, by response intent",
		},
		[]string{"intent"},
	)

	// TurnDuration tracks end-to-end turn processing time.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostess_turn_duration_seconds",
			Help:    "End-to-end duration of one conversation turn",
			Buckets: prometheus.DefBuckets,
		},
	)

	// BookingsCommitted counts reservations written, by forced flag.
	BookingsCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostess_bookings_committed_total",
			Help: "Total number of reservations committed",
		},
		[]string{"forced"},
	)

	// SessionMigrations counts anonymous-to-phone identity migrations.
	SessionMigrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostess_session_migrations_total",
			Help: "Total number of session identity migrations",
		},
	)

	// ExtractionDuration tracks the extraction completion latency.
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostess_extraction_duration_seconds",
			Help:    "Duration of utterance extraction completions",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SynthesisDuration tracks text-to-speech latency.
	SynthesisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostess_synthesis_duration_seconds",
			Help:    "Duration of speech synthesis calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SynthesisFallbacks counts replies served by the fallback TTS provider.
	SynthesisFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostess_synthesis_fallbacks_total",
			Help: "Total number of replies synthesized by the fallback provider",
		},
	)

	// ActiveCalls tracks currently open websocket call connections.
	ActiveCalls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostess_active_calls",
			Help: "Number of currently open call connections",
		},
	)
)

// RecordTurn records one processed turn with its response intent.
func RecordTurn(intent string, start time.Time) {
	TurnsProcessed.WithLabelValues(intent).Inc()
	TurnDuration.Observe(time.Since(start).Seconds())
}

// RecordBooking records a committed reservation.
func RecordBooking(forced bool) {
	label := "false"
	if forced {
		label = "true"
	}
	BookingsCommitted.WithLabelValues(label).Inc()
}
