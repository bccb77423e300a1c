// Package observability holds the HTTP shell's metrics and request logging.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the HTTP shell.
type Metrics struct {
	// Registry owns the collectors and backs the /metrics endpoint.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	uploads         *prometheus.CounterVec
	renders         *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	rateLimited     prometheus.Counter
	sessions        prometheus.GaugeFunc
	artifacts       prometheus.GaugeFunc
}

// NewMetrics registers all collectors in a private registry. activeSessions
// and artifactEntries are read at scrape time; either may be nil.
func NewMetrics(activeSessions, artifactEntries func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sportsposter_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
		uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsposter_uploads_total",
				Help: "Uploaded exports by validation result.",
			},
			[]string{"result"},
		),
		renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsposter_renders_total",
				Help: "Composed posters by variant.",
			},
			[]string{"variant"},
		),
		renderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sportsposter_export_duration_seconds",
				Help:    "Time spent encoding a poster by format.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"format"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsposter_cache_hits_total",
				Help: "Cache hits by cache.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sportsposter_cache_misses_total",
				Help: "Cache misses by cache.",
			},
			[]string{"cache"},
		),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "sportsposter_rate_limited_total",
			Help: "Requests rejected by the upload rate limiter.",
		}),
	}
	if activeSessions != nil {
		m.sessions = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sportsposter_active_sessions",
			Help: "Sessions currently held in memory.",
		}, activeSessions)
	}
	if artifactEntries != nil {
		m.artifacts = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sportsposter_artifact_cache_entries",
			Help: "Entries held in the rendered artifact cache, chunks included.",
		}, artifactEntries)
	}
	return m
}

// RecordRequest observes one HTTP request.
func (m *Metrics) RecordRequest(route, status string, d time.Duration) {
	m.requestDuration.WithLabelValues(route, status).Observe(d.Seconds())
}

// IncrUpload counts an upload with result "ok", "schema", "unparseable" or "error".
func (m *Metrics) IncrUpload(result string) {
	m.uploads.WithLabelValues(result).Inc()
}

// IncrRender counts a composed poster.
func (m *Metrics) IncrRender(variant string) {
	m.renders.WithLabelValues(variant).Inc()
}

// RecordExport observes the encoding time of one format.
func (m *Metrics) RecordExport(format string, d time.Duration) {
	m.renderDuration.WithLabelValues(format).Observe(d.Seconds())
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRateLimited counts a rejected request.
func (m *Metrics) IncrRateLimited() {
	m.rateLimited.Inc()
}
