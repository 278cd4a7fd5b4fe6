package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcome labels.
const (
	OutcomeSuccess        = "success"
	OutcomeReplay         = "replay"
	OutcomeInvalid        = "invalid"
	OutcomeEmptyCart      = "empty_cart"
	OutcomeNotFound       = "not_found"
	OutcomeUnavailable    = "unavailable"
	OutcomeConflict       = "conflict"
	OutcomeStorageError   = "storage_error"
	OutcomeReconciliation = "reconciliation"
)

// Checkout collects checkout workflow metrics. A nil *Checkout is valid and
// records nothing.
type Checkout struct {
	attempts        *prometheus.CounterVec
	duration        prometheus.Histogram
	compensations   *prometheus.CounterVec
	publishFailures prometheus.Counter
}

func NewCheckout(reg prometheus.Registerer) *Checkout {
	m := &Checkout{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecofinds",
			Subsystem: "checkout",
			Name:      "attempts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ecofinds",
			Subsystem: "checkout",
			Name:      "duration_seconds",
			Help:      "Checkout latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecofinds",
			Subsystem: "checkout",
			Name:      "compensations_total",
			Help:      "Compensation runs by result (ok, failed).",
		}, []string{"result"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ecofinds",
			Subsystem: "checkout",
			Name:      "event_publish_failures_total",
			Help:      "order.completed events that could not be published.",
		}),
	}
	reg.MustRegister(m.attempts, m.duration, m.compensations, m.publishFailures)
	return m
}

func (m *Checkout) Observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Checkout) Compensated(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.compensations.WithLabelValues("ok").Inc()
		return
	}
	m.compensations.WithLabelValues("failed").Inc()
}

func (m *Checkout) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}
