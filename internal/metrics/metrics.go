// Package metrics owns the counters and latency histogram observability
// hooks: a private Prometheus registry exposed both as /metrics text
// exposition and as the summed JSON snapshot served at /stats.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics is the process-wide, immutable observability singleton. It is
// constructed once at startup against its own registry (not the global
// default) so tests can build independent instances.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	authFailures    *prometheus.CounterVec
	upstreamErrors  *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// New builds a Metrics instance and registers every collector against a
// fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cachegate_requests_total",
			Help: "Total requests served by cachegate.",
		}, []string{"method", "status"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cachegate_cache_hits_total",
			Help: "Total cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cachegate_cache_misses_total",
			Help: "Total cache misses.",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cachegate_auth_failures_total",
			Help: "Total authentication failures.",
		}, []string{"method"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cachegate_upstream_errors_total",
			Help: "Total upstream store errors.",
		}, []string{"store_id"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cachegate_upstream_latency_seconds",
			Help:    "Upstream store request latency in seconds.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"store_id"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.cacheHits,
		m.cacheMisses,
		m.authFailures,
		m.upstreamErrors,
		m.upstreamLatency,
	)

	return m
}

// Registry exposes the backing Prometheus registry, e.g. for promhttp.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) IncRequests(method, status string) {
	m.requestsTotal.WithLabelValues(method, status).Inc()
}

func (m *Metrics) IncCacheHit()  { m.cacheHits.Inc() }
func (m *Metrics) IncCacheMiss() { m.cacheMisses.Inc() }

func (m *Metrics) IncAuthFailure(method string) {
	m.authFailures.WithLabelValues(method).Inc()
}

func (m *Metrics) IncUpstreamError(storeID string) {
	m.upstreamErrors.WithLabelValues(storeID).Inc()
}

func (m *Metrics) ObserveUpstreamLatency(storeID string, d time.Duration) {
	m.upstreamLatency.WithLabelValues(storeID).Observe(d.Seconds())
}

// Snapshot is the /stats JSON payload: counters summed across all label
// combinations, plus the cache byte usage supplied by the caller.
type Snapshot struct {
	RequestsTotal  uint64 `json:"requests_total"`
	CacheHits      uint64 `json:"cache_hits"`
	CacheMisses    uint64 `json:"cache_misses"`
	UpstreamErrors uint64 `json:"upstream_errors"`
	AuthFailures   uint64 `json:"auth_failures"`
	CacheEntries   uint64 `json:"cache_entries"`
	CacheBytes     uint64 `json:"cache_bytes"`
}

// Snapshot gathers the registry and sums each family, exactly as the
// counters are exposed at /metrics, so the two surfaces never disagree.
func (m *Metrics) Snapshot(cacheEntries, cacheBytes uint64) Snapshot {
	families, err := m.registry.Gather()
	if err != nil {
		families = nil
	}

	return Snapshot{
		RequestsTotal:  sumCounter(families, "cachegate_requests_total"),
		CacheHits:      sumCounter(families, "cachegate_cache_hits_total"),
		CacheMisses:    sumCounter(families, "cachegate_cache_misses_total"),
		UpstreamErrors: sumCounter(families, "cachegate_upstream_errors_total"),
		AuthFailures:   sumCounter(families, "cachegate_auth_failures_total"),
		CacheEntries:   cacheEntries,
		CacheBytes:     cacheBytes,
	}
}

func sumCounter(families []*dto.MetricFamily, name string) uint64 {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		return uint64(total)
	}
	return 0
}
