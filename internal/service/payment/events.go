package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
)

const (
	EventPaymentCreated   = "payment.created"
	EventInstallmentPaid  = "installment.paid"
	EventPaymentToppedUp  = "payment.topped_up"
	EventPaymentCompleted = "payment.completed"
)

// LedgerEvent is published after a ledger change has been committed.
type LedgerEvent struct {
	PaymentID       uuid.UUID           `json:"payment_id"`
	TenantID        uuid.UUID           `json:"tenant_id"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	AppointmentID   uuid.UUID           `json:"appointment_id"`
	InstallmentID   *uuid.UUID          `json:"installment_id,omitempty"`
	Amount          decimal.Decimal     `json:"amount"`
	PaidAmount      decimal.Decimal     `json:"paid_amount"`
	RemainingAmount decimal.Decimal     `json:"remaining_amount"`
	Status          model.PaymentStatus `json:"status"`
	OccurredAt      time.Time           `json:"occurred_at"`
}

func (e *LedgerEvent) EventTenant() string {
	return e.TenantID.String()
}

func newLedgerEvent(p *model.Payment, amount decimal.Decimal, installmentID *uuid.UUID, at time.Time) *LedgerEvent {
	return &LedgerEvent{
		PaymentID:       p.ID,
		TenantID:        p.TenantID,
		CustomerID:      p.CustomerID,
		AppointmentID:   p.AppointmentID,
		InstallmentID:   installmentID,
		Amount:          amount,
		PaidAmount:      p.PaidAmount,
		RemainingAmount: p.RemainingAmount,
		Status:          p.Status,
		OccurredAt:      at,
	}
}

// publish never fails the caller: the ledger change is already committed.
func (s *Service) publish(ctx context.Context, eventType string, evt *LedgerEvent) {
	err := s.publisher.Publish(ctx, eventType, evt)
	s.metrics.ObservePublish(eventType, err)
	if err != nil {
		log.Error().Err(err).
			Str("event_type", eventType).
			Str("payment_id", evt.PaymentID.String()).
			Msg("failed to publish ledger event")
	}
}
