package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storeOps        *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	storeFallbacks  *prometheus.CounterVec
	cascades        *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboardx_store_operations_total",
				Help: "Collection loads and saves by key and result",
			},
			[]string{"op", "key", "result"},
		),
		storeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskboardx_store_operation_duration_seconds",
				Help:    "Backend latency of collection loads and saves",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "driver"},
		),
		storeFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboardx_store_fallbacks_total",
				Help: "Collections replaced by their default, by reason (missing, corrupt)",
			},
			[]string{"key", "reason"},
		),
		cascades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboardx_cascades_total",
				Help: "Referential integrity cascades applied, by rule",
			},
			[]string{"rule"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.storeOps,
		m.storeDuration,
		m.storeFallbacks,
		m.cascades,
		prometheus.NewGoCollector(),
	)

	return m
}

func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) ObserveStore(op, key, driver string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOps.WithLabelValues(op, key, result).Inc()
	m.storeDuration.WithLabelValues(op, driver).Observe(d.Seconds())
}

func (m *Metrics) Fallback(key, reason string) {
	if m == nil {
		return
	}
	m.storeFallbacks.WithLabelValues(key, reason).Inc()
}

func (m *Metrics) Cascade(rule string) {
	if m == nil {
		return
	}
	m.cascades.WithLabelValues(rule).Inc()
}
