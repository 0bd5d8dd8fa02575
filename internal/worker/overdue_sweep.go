package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/pkg/metrics"
)

type OverdueLister interface {
	OverdueInstallments(ctx context.Context) ([]*model.OverdueInstallment, error)
}

// OverdueSweep periodically counts overdue installments across all tenants
// and reports them per customer.
type OverdueSweep struct {
	ledger   OverdueLister
	interval time.Duration
	metrics  *metrics.Metrics
}

func NewOverdueSweep(ledger OverdueLister, interval time.Duration, m *metrics.Metrics) *OverdueSweep {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueSweep{ledger: ledger, interval: interval, metrics: m}
}

func (w *OverdueSweep) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Sweep(ctx); err != nil {
			log.Error().Err(err).Msg("overdue installment sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs one pass and returns the number of overdue installments.
func (w *OverdueSweep) Sweep(ctx context.Context) (int, error) {
	overdue, err := w.ledger.OverdueInstallments(tenant.NewContext(ctx, tenant.System()))
	if err != nil {
		return 0, err
	}
	w.metrics.SetOverdue(len(overdue))

	perCustomer := make(map[string]int)
	for _, o := range overdue {
		perCustomer[o.CustomerID.String()]++
	}
	for id, n := range perCustomer {
		log.Warn().Str("customer_id", id).Int("overdue", n).Msg("overdue installments")
	}
	return len(overdue), nil
}
