// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcome labels
const (
	OutcomeSuccessTrusted     = "success_trusted"
	OutcomeSuccessUntrusted   = "success_untrusted"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeAccountLocked      = "account_locked"
	OutcomeInvalidFingerprint = "invalid_fingerprint"
	OutcomeServerError        = "server_error"
)

// Metrics groups the application collectors
type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	AccountLocks   prometheus.Counter
	Registrations  *prometheus.CounterVec
	SessionsPurged prometheus.Counter

	registry *prometheus.Registry
}

// New creates the collectors on a private registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travelguide",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		AccountLocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "travelguide",
			Name:      "account_locks_total",
			Help:      "Accounts locked after repeated password failures.",
		}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "travelguide",
			Name:      "registrations_total",
			Help:      "Registration attempts by result.",
		}, []string{"result"}),
		SessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "travelguide",
			Name:      "sessions_purged_total",
			Help:      "Expired sessions removed by the janitor.",
		}),
		registry: reg,
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.LoginAttempts,
		m.AccountLocks,
		m.Registrations,
		m.SessionsPurged,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
