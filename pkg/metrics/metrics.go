// Package metrics provides Prometheus metrics for the skill-points
// daemons.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Leaderboard variant label values.
const (
	VariantNub = "nub"
	VariantPro = "pro"
)

// Manager owns all Prometheus collectors for one process.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	enabled   bool
	registry  *prometheus.Registry

	// Request stream
	requestsProcessed prometheus.Counter
	requestWarnings   prometheus.Counter

	// Scoring
	fitPasses        *prometheus.CounterVec
	fallbackScorings prometheus.Counter
	fittedScorings   prometheus.Counter
	fitDuration      *prometheus.HistogramVec
	computeDuration  *prometheus.HistogramVec
	leaderboardSize  *prometheus.GaugeVec

	// Store
	dbQueryDuration prometheus.Histogram
	dbWriteDuration prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "skillpoints",
		subsystem: "scoring",
		buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:   true,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}
	histo := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.buckets}
	}

	m.requestsProcessed = prometheus.NewCounter(factory("requests_total", "Requests fully processed."))
	m.requestWarnings = prometheus.NewCounter(factory("request_warnings_total", "Requests that produced diagnostics."))
	m.fitPasses = prometheus.NewCounterVec(factory("fit_passes_total", "Distribution fits performed."), []string{"variant"})
	m.fallbackScorings = prometheus.NewCounter(factory("fallback_scorings_total", "Leaderboards scored with the sigmoid fallback."))
	m.fittedScorings = prometheus.NewCounter(factory("fitted_scorings_total", "Leaderboards scored against a fitted distribution."))
	m.fitDuration = prometheus.NewHistogramVec(histo("fit_duration_ms", "Distribution fit duration in milliseconds."), []string{"variant"})
	m.computeDuration = prometheus.NewHistogramVec(histo("compute_duration_ms", "Fraction computation duration in milliseconds."), []string{"variant"})
	m.leaderboardSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "leaderboard_size", Help: "Record count of the last processed leaderboard.",
	}, []string{"variant"})
	m.dbQueryDuration = prometheus.NewHistogram(histo("db_query_duration_ms", "Snapshot query duration in milliseconds."))
	m.dbWriteDuration = prometheus.NewHistogram(histo("db_write_duration_ms", "Commit duration in milliseconds."))

	if !m.enabled {
		return
	}
	m.registry.MustRegister(
		m.requestsProcessed,
		m.requestWarnings,
		m.fitPasses,
		m.fallbackScorings,
		m.fittedScorings,
		m.fitDuration,
		m.computeDuration,
		m.leaderboardSize,
		m.dbQueryDuration,
		m.dbWriteDuration,
	)
}

// Handler returns an http.Handler serving the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Manager-level recorders.

func (m *Manager) RecordRequest()        { m.requestsProcessed.Inc() }
func (m *Manager) RecordWarning()        { m.requestWarnings.Inc() }
func (m *Manager) RecordFallbackScored() { m.fallbackScorings.Inc() }
func (m *Manager) RecordFittedScored()   { m.fittedScorings.Inc() }

func (m *Manager) RecordFit(variant string, ms float64) {
	m.fitPasses.WithLabelValues(variant).Inc()
	m.fitDuration.WithLabelValues(variant).Observe(ms)
}

func (m *Manager) RecordCompute(variant string, ms float64) {
	m.computeDuration.WithLabelValues(variant).Observe(ms)
}

func (m *Manager) SetLeaderboardSize(variant string, n int) {
	m.leaderboardSize.WithLabelValues(variant).Set(float64(n))
}

func (m *Manager) RecordDBQuery(ms float64) { m.dbQueryDuration.Observe(ms) }
func (m *Manager) RecordDBWrite(ms float64) { m.dbWriteDuration.Observe(ms) }

// Package-level helpers against the global manager.

// Get returns the global manager.
func Get() *Manager { return globalManager }

// Handler serves the global registry.
func Handler() http.Handler { return globalManager.Handler() }

func RecordRequest()                       { globalManager.RecordRequest() }
func RecordWarning()                       { globalManager.RecordWarning() }
func RecordFallbackScored()                { globalManager.RecordFallbackScored() }
func RecordFittedScored()                  { globalManager.RecordFittedScored() }
func RecordFit(variant string, ms float64) { globalManager.RecordFit(variant, ms) }
func RecordCompute(variant string, ms float64) {
	globalManager.RecordCompute(variant, ms)
}
func SetLeaderboardSize(variant string, n int) {
	globalManager.SetLeaderboardSize(variant, n)
}
func RecordDBQuery(ms float64) { globalManager.RecordDBQuery(ms) }
func RecordDBWrite(ms float64) { globalManager.RecordDBWrite(ms) }
