package observability

import (
	"context"

	"github.com/aretw0/reschema/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values of RequestsTotal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the Prometheus collectors fed by store hooks.
type Metrics struct {
	DispatchTotal    *prometheus.CounterVec
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// NewMetrics registers the collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them through promhttp.Handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reschema",
				Name:      "actions_dispatched_total",
				Help:      "Total number of actions reduced, by action type",
			},
			[]string{"type", "error"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "reschema",
				Name:      "requests_total",
				Help:      "Total number of settled async requests",
			},
			[]string{"type", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "reschema",
				Name:      "request_duration_seconds",
				Help:      "Duration of async requests in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"type"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "reschema",
				Name:      "requests_in_flight",
				Help:      "Number of async requests not yet settled",
			},
		),
	}
	reg.MustRegister(m.DispatchTotal, m.RequestsTotal, m.RequestDuration, m.RequestsInFlight)
	return m
}

// Hooks returns store hooks recording into m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			label := "false"
			if e.Action.Error {
				label = "true"
			}
			m.DispatchTotal.WithLabelValues(e.Action.Type, label).Inc()
		},
		OnRequestStart: func(context.Context, *domain.RequestEvent) {
			m.RequestsInFlight.Inc()
		},
		OnRequestSettle: func(_ context.Context, e *domain.RequestEvent) {
			m.RequestsInFlight.Dec()
			outcome := OutcomeSuccess
			if e.Err != nil {
				outcome = OutcomeFailure
			}
			m.RequestsTotal.WithLabelValues(e.Type, outcome).Inc()
			m.RequestDuration.WithLabelValues(e.Type).Observe(e.Duration.Seconds())
		},
	}
}
