package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCheckout_CountsOutcomes(t *testing.T) {
	m := NewCheckout(prometheus.NewRegistry())

	m.Observe(OutcomeSuccess, 20*time.Millisecond)
	m.Observe(OutcomeSuccess, 5*time.Millisecond)
	m.Observe(OutcomeConflict, time.Millisecond)
	m.Compensated(true)
	m.Compensated(false)
	m.PublishFailed()

	if got := testutil.ToFloat64(m.attempts.WithLabelValues(OutcomeSuccess)); got != 2 {
		t.Errorf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues(OutcomeConflict)); got != 1 {
		t.Errorf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.compensations.WithLabelValues("failed")); got != 1 {
		t.Errorf("expected 1 failed compensation, got %v", got)
	}
	if got := testutil.ToFloat64(m.publishFailures); got != 1 {
		t.Errorf("expected 1 publish failure, got %v", got)
	}
}

func TestCheckout_NilIsNoop(t *testing.T) {
	var m *Checkout
	m.Observe(OutcomeSuccess, time.Second)
	m.Compensated(true)
	m.PublishFailed()
}
