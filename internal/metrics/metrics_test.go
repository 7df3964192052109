package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PayloadBuilt("cart")
	m.PayloadBuilt("cart")
	m.Skipped("no_merchant_site_id")
	m.Dispatched("PostDispatch", nil)
	m.Dispatched("PostDispatch", errors.New("x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.payloadsBuilt.WithLabelValues("cart")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trackingSkipped.WithLabelValues("no_merchant_site_id")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsDispatched.WithLabelValues("PostDispatch", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsDispatched.WithLabelValues("PostDispatch", "error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PayloadBuilt("page")
		m.Skipped("x")
		m.Dispatched("e", nil)
	})
}
