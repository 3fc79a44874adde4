package observability

import (
	"context"
	"errors"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for tendril_resolutions_total.
const (
	OutcomeOK        = "ok"
	OutcomeCached    = "cached"
	OutcomeFault     = "fault"
	OutcomeTransport = "transport"
	OutcomeClosed    = "closed"
	OutcomeError     = "error"
)

// Metrics holds the client collectors.
type Metrics struct {
	Resolutions  *prometheus.CounterVec
	RoundTrip    prometheus.Histogram
	ChainLength  prometheus.Histogram
	SessionsOpen prometheus.Gauge
	ConnectFails prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tendril_resolutions_total",
				Help: "Total number of terminal resolutions by outcome",
			},
			[]string{"outcome"},
		),
		RoundTrip: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tendril_round_trip_seconds",
			Help:    "Duration of resolutions, including the network round trip",
			Buckets: prometheus.DefBuckets,
		}),
		ChainLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tendril_chain_length",
			Help:    "Number of operations sent per resolution",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		SessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tendril_sessions_open",
			Help: "Number of sessions currently Ready",
		}),
		ConnectFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tendril_connect_failures_total",
			Help: "Total number of failed handshakes",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Resolutions, m.RoundTrip, m.ChainLength, m.SessionsOpen, m.ConnectFails)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnConnect: func(_ context.Context, e *domain.SessionEvent) {
			if e.Err != nil {
				m.ConnectFails.Inc()
				return
			}
			m.SessionsOpen.Inc()
		},
		OnClose: func(_ context.Context, _ *domain.SessionEvent) {
			m.SessionsOpen.Dec()
		},
		OnResolveEnd: func(_ context.Context, e *domain.ResolveEvent) {
			m.Resolutions.WithLabelValues(Outcome(e)).Inc()
			if e.Cached {
				return
			}
			m.RoundTrip.Observe(e.Duration.Seconds())
			m.ChainLength.Observe(float64(len(e.Chain)))
		},
	}
}

// Outcome classifies a finished resolution for the outcome label.
func Outcome(e *domain.ResolveEvent) string {
	var (
		resErr   *domain.ResolutionError
		transErr *domain.TransportError
	)
	switch {
	case e.Err == nil && e.Cached:
		return OutcomeCached
	case e.Err == nil:
		return OutcomeOK
	case errors.As(e.Err, &resErr):
		return OutcomeFault
	case errors.As(e.Err, &transErr):
		return OutcomeTransport
	case errors.Is(e.Err, domain.ErrClosed):
		return OutcomeClosed
	default:
		return OutcomeError
	}
}
