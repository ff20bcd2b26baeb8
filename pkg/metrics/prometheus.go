// Package metrics provides Prometheus metrics for the spot discovery service.
//
// Every method is safe on a nil *Manager so components can run without metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Data sources guarded by request generations.
const (
	SourceSpots   = "spots"
	SourceHeatmap = "heatmap"
)

// Manager owns all service metrics.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	candidateResolutions prometheus.Counter
	candidateCacheHits   prometheus.Counter
	staleResponses       *prometheus.CounterVec
	fetchErrors          *prometheus.CounterVec
	heatLayerRebuilds    prometheus.Counter
	geolocationRequests  *prometheus.CounterVec
	pickerOutcomes       *prometheus.CounterVec
	sessionsActive       prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "spots",
		subsystem:        "discovery",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.candidateResolutions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidate_resolutions_total",
		Help:      "Number of candidate set computations (memo misses)",
	})
	m.candidateCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidate_cache_hits_total",
		Help:      "Number of candidate set lookups served from the memo",
	})
	m.staleResponses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stale_responses_total",
		Help:      "Responses discarded because a newer generation already resolved",
	}, []string{"source"})
	m.fetchErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_errors_total",
		Help:      "Collaborator fetch failures by source",
	}, []string{"source"})
	m.heatLayerRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "heat_layer_rebuilds_total",
		Help:      "Number of heat layers built",
	})
	m.geolocationRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "geolocation_requests_total",
		Help:      "Geolocation requests by outcome (fix, fallback, failed)",
	}, []string{"outcome"})
	m.pickerOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "point_selections_total",
		Help:      "Point selections by outcome (confirmed, cancelled)",
	}, []string{"outcome"})
	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_active",
		Help:      "Number of live map sessions",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

func (m *Manager) IncCandidateResolutions() {
	if m == nil {
		return
	}
	m.candidateResolutions.Inc()
}

func (m *Manager) IncCandidateCacheHits() {
	if m == nil {
		return
	}
	m.candidateCacheHits.Inc()
}

func (m *Manager) IncStaleResponses(source string) {
	if m == nil {
		return
	}
	m.staleResponses.WithLabelValues(source).Inc()
}

func (m *Manager) IncFetchErrors(source string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(source).Inc()
}

func (m *Manager) IncHeatLayerRebuilds() {
	if m == nil {
		return
	}
	m.heatLayerRebuilds.Inc()
}

func (m *Manager) IncGeolocation(outcome string) {
	if m == nil {
		return
	}
	m.geolocationRequests.WithLabelValues(outcome).Inc()
}

func (m *Manager) IncPointSelections(outcome string) {
	if m == nil {
		return
	}
	m.pickerOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Manager) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

// ObserveHTTP records one finished HTTP request.
func (m *Manager) ObserveHTTP(endpoint, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, code).Observe(float64(elapsed.Microseconds()) / 1000)
}
