package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TargetsInQueue      prometheus.Gauge

	RecordsWritten   *prometheus.CounterVec
	VisitFailures    *prometheus.CounterVec
	VisitDuration    prometheus.Histogram
	PaginationSteps  *prometheus.CounterVec
	GeoLookups       *prometheus.CounterVec
	TargetsCompleted *prometheus.CounterVec

	initOnce sync.Once
)

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	TargetsInQueue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "annuaire_targets_in_queue",
			Help: "Current number of listing targets waiting in the crawl queue.",
		},
	)

	RecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_records_written_total",
			Help: "Records appended to the output files.",
		},
		[]string{"kind"}, // mairie, epci
	)

	VisitFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_visit_failures_total",
			Help: "Detail page visits that produced no record.",
		},
		[]string{"error_type"},
	)

	VisitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "annuaire_visit_duration_seconds",
			Help:    "Duration of detail page visits.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 30},
		},
	)

	PaginationSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_pagination_steps_total",
			Help: "Load-more attempts on listing pages by outcome.",
		},
		[]string{"outcome"}, // loaded, exhausted, error
	)

	GeoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_geo_lookups_total",
			Help: "Geographic reference API lookups by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	TargetsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annuaire_targets_completed_total",
			Help: "Listing targets finished, by status.",
		},
		[]string{"status"}, // success, failure
	)
}
