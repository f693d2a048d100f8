package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AdminAPIMetrics records calls made against the Shopify admin GraphQL API.
type AdminAPIMetrics struct {
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	decodeDrops *prometheus.CounterVec
}

// NewAdminAPIMetrics registers the admin API metrics on the provided registerer.
func NewAdminAPIMetrics(reg prometheus.Registerer) *AdminAPIMetrics {
	if reg == nil {
		return &AdminAPIMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admin_api_request_duration_seconds",
		Help:    "Duration of admin GraphQL operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_api_errors",
		Help: "Failed admin GraphQL operations.",
	}, []string{"operation", "code"})
	decodeDrops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "designer_config_decode_drops",
		Help: "Metaobject config fields dropped because they failed to decode.",
	}, []string{"shop"})
	reg.MustRegister(duration, errors, decodeDrops)
	return &AdminAPIMetrics{
		duration:    duration,
		errors:      errors,
		decodeDrops: decodeDrops,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *AdminAPIMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncError increments the error counter for the named operation.
func (m *AdminAPIMetrics) IncError(operation, code string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

// IncDecodeDrop counts a malformed config field skipped during a read.
func (m *AdminAPIMetrics) IncDecodeDrop(shop string) {
	if m == nil || m.decodeDrops == nil {
		return
	}
	m.decodeDrops.WithLabelValues(normalizeLabel(shop)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
