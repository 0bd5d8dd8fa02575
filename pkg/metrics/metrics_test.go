package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveLedger(t *testing.T) {
	m := NewMetrics("salon", prometheus.NewRegistry())

	m.ObserveLedger("add_payment", time.Now(), nil)
	m.ObserveLedger("add_payment", time.Now(), errors.New("boom"))
	m.AddCollected("add_payment", 25)
	m.AddCollected("add_payment", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("add_payment", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerOperations.WithLabelValues("add_payment", "error")))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.LedgerAmount.WithLabelValues("add_payment")))
}

func TestObserveRequestBuckets(t *testing.T) {
	m := NewMetrics("salon", prometheus.NewRegistry())

	m.ObserveRequest("GET", "/api/v1/payments", 200, time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/payments", 404, time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/payments", 409, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/v1/payments", "4xx")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLedger("create_payment", time.Now(), nil)
		m.ObservePublish("payment.created", nil)
		m.RejectTenant("missing_tenant")
	})
}
