// Package metrics holds the Prometheus collectors for login, session
// authentication and visibility decisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	logins            *prometheus.CounterVec
	sessionAuth       *prometheus.CounterVec
	visibilityDenials *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spillit",
			Name:      "logins_total",
			Help:      "Google logins by outcome.",
		}, []string{"result"}),
		sessionAuth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spillit",
			Name:      "session_auth_total",
			Help:      "APPSESS header authentications by outcome.",
		}, []string{"result"}),
		visibilityDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spillit",
			Name:      "visibility_denials_total",
			Help:      "Requests denied by the visibility decision, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.logins,
		m.sessionAuth,
		m.visibilityDenials,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLogin counts a login attempt. result is "success" or an error class.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// ObserveSessionAuth counts a session header check.
func (m *Metrics) ObserveSessionAuth(result string) {
	if m == nil {
		return
	}
	m.sessionAuth.WithLabelValues(result).Inc()
}

// ObserveVisibilityDenial counts a denied view.
func (m *Metrics) ObserveVisibilityDenial(reason string) {
	if m == nil {
		return
	}
	m.visibilityDenials.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
