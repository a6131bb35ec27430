// Package metrics owns tasker's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tasker"

// Registry bundles the collectors on a private prometheus.Registry,
// so tests can build as many as they like without duplicate-registration panics.
type Registry struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	authEvents   *prometheus.CounterVec
	hashInFlight prometheus.Gauge
}

// New builds a Registry with Go runtime and process collectors attached.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authentication outcomes by event and outcome.",
		}, []string{"event", "outcome"}),
		hashInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "password_hash_in_flight",
			Help:      "Password hash/verify operations currently running.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveHTTP records one finished request. route should be the matched mux
// pattern, never the raw path, to keep label cardinality bounded.
func (r *Registry) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// AuthEvent implements session.EventRecorder.
func (r *Registry) AuthEvent(event, outcome string) {
	r.authEvents.WithLabelValues(event, outcome).Inc()
}

// HashStarted implements password.Observer.
func (r *Registry) HashStarted() { r.hashInFlight.Inc() }

// HashFinished implements password.Observer.
func (r *Registry) HashFinished() { r.hashInFlight.Dec() }
