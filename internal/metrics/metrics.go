package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slidewise",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "slidewise",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// outline is "generated" or "fallback"
	DecksGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slidewise",
			Name:      "decks_generated_total",
			Help:      "Decks produced by the generation pipeline",
		},
		[]string{"outline"},
	)

	OutlineFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slidewise",
			Name:      "outline_fallbacks_total",
			Help:      "Outline generations replaced by the deterministic fallback",
		},
		[]string{"reason"},
	)

	ImageEnrichment = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slidewise",
			Name:      "image_enrichment_total",
			Help:      "Per-slide image enrichment outcomes",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "slidewise",
			Name:      "pipeline_stage_seconds",
			Help:      "Duration of each generation pipeline stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"stage"},
	)

	DeckMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slidewise",
			Name:      "deck_mutations_total",
			Help:      "Deck edits, image replacements and deletions",
		},
		[]string{"op", "status"},
	)
)

// RecordRequest records an HTTP request.
func RecordRequest(method, route, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

func RecordStage(stage string, durationSec float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSec)
}

func RecordMutation(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DeckMutations.WithLabelValues(op, status).Inc()
}
