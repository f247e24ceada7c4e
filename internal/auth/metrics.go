package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for authentication attempts.
type Metrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	registry *prometheus.Registry
}

func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "keygate"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.attempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Total number of authentication attempts by scheme and outcome",
		},
		[]string{"scheme", "outcome"},
	)

	m.duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "duration_seconds",
			Help:      "Authentication duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"scheme", "outcome"},
	)

	m.registry.MustRegister(m.attempts, m.duration)
	return m
}

func (m *Metrics) Record(scheme, outcome string, elapsed time.Duration) {
	m.attempts.WithLabelValues(scheme, outcome).Inc()
	m.duration.WithLabelValues(scheme, outcome).Observe(elapsed.Seconds())
}

// Registry is the private registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type instrumentedAuthenticator struct {
	metrics *Metrics
	next    Authenticator
}

func NewInstrumentedAuthenticator(metrics *Metrics, next Authenticator) Authenticator {
	if metrics == nil || next == nil {
		return next
	}
	return &instrumentedAuthenticator{metrics: metrics, next: next}
}

func (a *instrumentedAuthenticator) Scheme() string {
	return a.next.Scheme()
}

func (a *instrumentedAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Result, error) {
	start := time.Now()
	result, err := a.next.Authenticate(ctx, r)

	outcome := result.Kind().String()
	if err != nil {
		outcome = "error"
	}
	a.metrics.Record(a.next.Scheme(), outcome, time.Since(start))
	return result, err
}
