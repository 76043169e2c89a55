// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
)

// Metrics methods are safe on a nil receiver so services can run without metrics.
type Metrics struct {
	sharesCreated    *prometheus.CounterVec
	shareResolutions *prometheus.CounterVec
	sharesPurged     prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sharesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "divelog",
			Name:      "shares_created_total",
			Help:      "Share grants created, by visibility.",
		}, []string{"visibility"}),
		shareResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "divelog",
			Name:      "share_resolutions_total",
			Help:      "Share token resolutions, by outcome.",
		}, []string{"outcome"}),
		sharesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "divelog",
			Name:      "shares_purged_total",
			Help:      "Expired shares deleted by the purge job.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "divelog",
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "divelog",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.sharesCreated, m.shareResolutions, m.sharesPurged, m.httpRequests, m.httpDuration)
	return m
}

func (m *Metrics) ShareCreated(visibility string) {
	if m == nil {
		return
	}
	m.sharesCreated.WithLabelValues(visibility).Inc()
}

func (m *Metrics) ShareResolved(outcome string) {
	if m == nil {
		return
	}
	m.shareResolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SharesPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sharesPurged.Add(float64(n))
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
