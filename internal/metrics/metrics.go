// Package metrics holds the Prometheus instruments for the client and guard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "homereno"

// Label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds all Prometheus metrics for the client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RefreshTotal       *prometheus.CounterVec
	ReplayTotal        *prometheus.CounterVec
	GuardDecisions     *prometheus.CounterVec
	SessionClearsTotal *prometheus.CounterVec
}

// New creates and registers all metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RefreshTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Token refresh exchanges by result",
			},
			[]string{"result"},
		),
		ReplayTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replay_total",
				Help:      "Requests replayed after a refresh, by result",
			},
			[]string{"result"},
		),
		GuardDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guard_decisions_total",
				Help:      "Route guard outcomes",
			},
			[]string{"decision"},
		),
		SessionClearsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_clears_total",
				Help:      "Session resets by reason",
			},
			[]string{"reason"},
		),
	}
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Replay(result string) {
	if m == nil {
		return
	}
	m.ReplayTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) GuardDecision(decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) SessionCleared(reason string) {
	if m == nil {
		return
	}
	m.SessionClearsTotal.WithLabelValues(reason).Inc()
}
