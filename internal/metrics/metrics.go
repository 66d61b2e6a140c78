// Package metrics holds the prometheus collectors shared by the API client and
// the session store.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "busdesk"

// Metrics groups the console's collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	retries   prometheus.Counter
	refreshes *prometheus.CounterVec
	logins    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by method and response status (0 = transport error).",
		}, []string{"method", "status"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Requests replayed after a successful token refresh.",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refreshes_total",
			Help:      "Token refresh calls sent to the backend by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login and register attempts by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.requests, m.retries, m.refreshes, m.logins)
	return m
}

// Handler serves the metrics gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveRequest counts one request. status is 0 when no response arrived.
func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// ObserveRetry counts one replayed request.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// ObserveRefresh counts one refresh round trip.
func (m *Metrics) ObserveRefresh(err error) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome(err)).Inc()
}

// ObserveLogin counts one login or register attempt.
func (m *Metrics) ObserveLogin(err error) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome(err)).Inc()
}

// Refreshes returns the refresh counter for the given outcome ("ok" or "error").
func (m *Metrics) Refreshes(outcome string) prometheus.Counter {
	return m.refreshes.WithLabelValues(outcome)
}

// Retries returns the retry counter.
func (m *Metrics) Retries() prometheus.Counter {
	return m.retries
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
