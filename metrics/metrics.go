// Package metrics exposes Prometheus instrumentation for registrations,
// dispatches and HTTP traffic. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the router's collectors.
type Metrics struct {
	DispatchTotal    *prometheus.CounterVec   // dispatches by destination and outcome
	DispatchDuration *prometheus.HistogramVec // dispatch latency by destination
	Registrations    *prometheus.CounterVec   // registrations by resulting status
	HTTPRequests     *prometheus.CounterVec   // requests by method, route and status code
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentrouter_dispatch_total",
			Help: "Total number of dispatched messages",
		}, []string{"destination", "outcome"}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentrouter_dispatch_duration_seconds",
			Help:    "Time spent answering a dispatched message",
			Buckets: prometheus.DefBuckets,
		}, []string{"destination"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentrouter_registrations_total",
			Help: "Total number of agent registrations by resulting status",
		}, []string{"status"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentrouter_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "code"}),
	}

	reg.MustRegister(m.DispatchTotal, m.DispatchDuration, m.Registrations, m.HTTPRequests)

	return m
}

// ObserveDispatch records one dispatch.
func (m *Metrics) ObserveDispatch(destination string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DispatchTotal.WithLabelValues(destination, outcome).Inc()
	m.DispatchDuration.WithLabelValues(destination).Observe(d.Seconds())
}

// ObserveRegistration records one registration.
func (m *Metrics) ObserveRegistration(status string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(status).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, code).Inc()
}
