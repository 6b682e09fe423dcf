package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics of the admin client
type Metrics struct {
	// Tenant API metrics
	ClientRequestsTotal   *prometheus.CounterVec
	ClientRequestDuration *prometheus.HistogramVec
	ClientErrorsTotal     *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal          *prometheus.CounterVec
	CacheMissesTotal        *prometheus.CounterVec
	CacheFetchErrorsTotal   *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec
	SnapshotErrorsTotal     *prometheus.CounterVec

	// Mutation metrics
	MutationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		ClientRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantadmin_client_requests_total",
				Help: "Total number of tenant API requests",
			},
			[]string{"operation", "method", "status"},
		),
		ClientRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenantadmin_client_request_duration_seconds",
				Help:    "Tenant API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ClientErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantadmin_client_errors_total",
				Help: "Total number of tenant API errors by kind",
			},
			[]string{"operation", "kind"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantadmin_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantadmin_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
		CacheFetchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantadmin_cache_fetch_errors_total",
				Help: "Total number of failed cache fills",
			},
			[]string{"cache"},
		),
		CacheInvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantadmin_cache_invalidations_total",
				Help: "Total number of cache invalidations",
			},
			[]string{"cache", "reason"},
		),
		SnapshotErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantadmin_snapshot_errors_total",
				Help: "Total number of Redis snapshot tier errors",
			},
			[]string{"operation"},
		),

		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantadmin_mutations_total",
				Help: "Total number of write operations",
			},
			[]string{"operation", "status"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.ClientRequestsTotal,
			m.ClientRequestDuration,
			m.ClientErrorsTotal,
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.CacheFetchErrorsTotal,
			m.CacheInvalidationsTotal,
			m.SnapshotErrorsTotal,
			m.MutationsTotal,
		)
	}

	return m
}

// RecordRequest records a completed tenant API request.
// A zero status means the request never got a response.
func (m *Metrics) RecordRequest(operation, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ClientRequestsTotal.WithLabelValues(operation, method, strconv.Itoa(status)).Inc()
	m.ClientRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordClientError records a mapped tenant API error
func (m *Metrics) RecordClientError(operation, kind string) {
	if m == nil {
		return
	}
	m.ClientErrorsTotal.WithLabelValues(operation, kind).Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordCacheFetchError records a failed cache fill
func (m *Metrics) RecordCacheFetchError(cache string) {
	if m == nil {
		return
	}
	m.CacheFetchErrorsTotal.WithLabelValues(cache).Inc()
}

// RecordInvalidation records a cache invalidation
func (m *Metrics) RecordInvalidation(cache, reason string) {
	if m == nil {
		return
	}
	m.CacheInvalidationsTotal.WithLabelValues(cache, reason).Inc()
}

// RecordSnapshotError records a Redis snapshot tier failure
func (m *Metrics) RecordSnapshotError(operation string) {
	if m == nil {
		return
	}
	m.SnapshotErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordMutation records the outcome of a write operation
func (m *Metrics) RecordMutation(operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.MutationsTotal.WithLabelValues(operation, status).Inc()
}
