// Package metrics holds the prometheus collectors for the engines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeEndOfData = "end_of_data"
	OutcomeError     = "error"
	OutcomeStale     = "stale"
)

var (
	ListingFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "producermap",
		Subsystem: "listings",
		Name:      "fetches_total",
		Help:      "Listing page fetches by outcome",
	}, []string{"outcome"})

	ListingFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "producermap",
		Subsystem: "listings",
		Name:      "fetch_duration_seconds",
		Help:      "Latency of paged listing queries",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	DebouncedFetches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "producermap",
		Subsystem: "viewport",
		Name:      "debounced_fetches_total",
		Help:      "Fetches fired after a viewport or input burst settled",
	})

	CartRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "producermap",
		Subsystem: "cart",
		Name:      "vendor_rejections_total",
		Help:      "Add-to-cart attempts rejected because the cart belongs to another vendor",
	})

	QueryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "producermap",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Paged query cache lookups by result",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "producermap",
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Engine sessions currently held in memory",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
