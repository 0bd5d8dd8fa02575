package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Ledger metrics
	LedgerOperations *prometheus.CounterVec
	LedgerLatency    *prometheus.HistogramVec
	LedgerAmount     *prometheus.CounterVec

	// Event metrics
	EventsPublished     *prometheus.CounterVec
	EventsConsumed      *prometheus.CounterVec
	OverdueInstallments prometheus.Gauge

	// Tenant metrics
	TenantRejections *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path"}),

		LedgerOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of payment ledger operations",
		}, []string{"operation", "status"}),
		LedgerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of payment ledger operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		LedgerAmount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "amount_collected_total",
			Help:      "Money moved from remaining to paid",
		}, []string{"operation"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of ledger events published",
		}, []string{"event_type", "status"}),

		EventsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "consumed_total",
			Help:      "Total number of ledger events handled by the worker",
		}, []string{"event_type", "status"}),
		OverdueInstallments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "overdue_installments",
			Help:      "Unpaid installments past their due date at the last sweep",
		}),

		TenantRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant",
			Name:      "rejections_total",
			Help:      "Requests rejected at the tenant boundary",
		}, []string{"reason"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveLedger records one ledger operation. A nil receiver is a no-op.
func (m *Metrics) ObserveLedger(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, status(err)).Inc()
	m.LedgerLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddCollected(operation string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.LedgerAmount.WithLabelValues(operation).Add(amount)
}

func (m *Metrics) ObservePublish(eventType string, err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, status(err)).Inc()
}

func (m *Metrics) ObserveConsume(eventType string, err error) {
	if m == nil {
		return
	}
	m.EventsConsumed.WithLabelValues(eventType, status(err)).Inc()
}

func (m *Metrics) SetOverdue(n int) {
	if m == nil {
		return
	}
	m.OverdueInstallments.Set(float64(n))
}

func (m *Metrics) ObserveRequest(method, path string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, statusLabel(code)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) RejectTenant(reason string) {
	if m == nil {
		return
	}
	m.TenantRejections.WithLabelValues(reason).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
