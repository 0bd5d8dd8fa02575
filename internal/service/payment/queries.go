package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("payment", err)
		}
		return nil, apperrors.Wrap(err)
	}
	if p.Installments, err = s.installments.ListByPayment(ctx, id); err != nil {
		return nil, apperrors.Wrap(err)
	}
	return p, nil
}

func (s *Service) ListPayments(ctx context.Context) ([]*model.Payment, error) {
	return s.withInstallments(ctx)(s.payments.GetAll(ctx))
}

func (s *Service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Payment, error) {
	return s.withInstallments(ctx)(s.payments.ListByCustomer(ctx, customerID))
}

func (s *Service) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Payment, error) {
	return s.withInstallments(ctx)(s.payments.ListByAppointment(ctx, appointmentID))
}

func (s *Service) ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Payment, error) {
	if end.Before(start) {
		return nil, apperrors.BadRequest("end date must not be before start date", nil)
	}
	return s.withInstallments(ctx)(s.payments.ListByDateRange(ctx, start, end))
}

func (s *Service) ListByMethod(ctx context.Context, method string) ([]*model.Payment, error) {
	if method == "" {
		return nil, apperrors.BadRequest("payment method is required", nil)
	}
	return s.withInstallments(ctx)(s.payments.ListByMethod(ctx, method))
}

// withInstallments attaches installments to a listed page of payments with a
// single extra query.
func (s *Service) withInstallments(ctx context.Context) func([]*model.Payment, error) ([]*model.Payment, error) {
	return func(payments []*model.Payment, err error) ([]*model.Payment, error) {
		if err != nil {
			return nil, apperrors.Wrap(err)
		}
		if len(payments) == 0 {
			return payments, nil
		}

		ids := make([]uuid.UUID, len(payments))
		for i, p := range payments {
			ids[i] = p.ID
		}
		grouped, err := s.installments.ListByPayments(ctx, ids)
		if err != nil {
			return nil, apperrors.Wrap(err)
		}
		for _, p := range payments {
			p.Installments = grouped[p.ID]
			if p.Installments == nil {
				p.Installments = []*model.PaymentInstallment{}
			}
		}
		return payments, nil
	}
}

// TotalPayments sums paid amounts with a payment date in [start, end]. A nil
// bound leaves that side open.
func (s *Service) TotalPayments(ctx context.Context, start, end *time.Time) (decimal.Decimal, error) {
	if start != nil && end != nil && end.Before(*start) {
		return decimal.Zero, apperrors.BadRequest("end date must not be before start date", nil)
	}
	total, err := s.payments.SumPaid(ctx, start, end)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err)
	}
	return total, nil
}

func (s *Service) CustomerTotalPayments(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	total, err := s.payments.SumPaidByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err)
	}
	return total, nil
}

// CustomerRemainingBalance is what the customer's appointments cost minus
// everything paid against them.
func (s *Service) CustomerRemainingBalance(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	prices, err := s.appointments.SumFinalPriceByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err)
	}
	paid, err := s.payments.SumPaidByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(err)
	}
	return prices.Sub(paid), nil
}

func (s *Service) CustomerTotals(ctx context.Context, customerID uuid.UUID) (*model.CustomerPaymentTotals, error) {
	paid, err := s.CustomerTotalPayments(ctx, customerID)
	if err != nil {
		return nil, err
	}
	remaining, err := s.CustomerRemainingBalance(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &model.CustomerPaymentTotals{
		CustomerID:       customerID,
		TotalPaid:        paid,
		RemainingBalance: remaining,
	}, nil
}

func (s *Service) Summary(ctx context.Context) (*model.PaymentSummary, error) {
	totals, err := s.payments.Totals(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	counts, err := s.payments.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	recent, err := s.payments.ListRecent(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	now := s.now()
	upcoming, err := s.installments.ListUpcoming(ctx, now, now.Add(s.cfg.UpcomingWindow))
	if err != nil {
		return nil, apperrors.Wrap(err)
	}

	summary := &model.PaymentSummary{
		PaymentTotals:        *totals,
		PendingPayments:      counts[model.PaymentStatusPending],
		PartialPayments:      counts[model.PaymentStatusPartial],
		CompletedPayments:    counts[model.PaymentStatusCompleted],
		RecentPayments:       recent,
		UpcomingInstallments: upcoming,
	}
	for _, n := range counts {
		summary.TotalPayments += n
	}
	return summary, nil
}

func (s *Service) PendingAppointments(ctx context.Context) ([]*model.PendingAppointment, error) {
	pending, err := s.payments.PendingAppointments(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return pending, nil
}

func (s *Service) OverdueInstallments(ctx context.Context) ([]*model.OverdueInstallment, error) {
	overdue, err := s.installments.ListOverdue(ctx, s.now())
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return overdue, nil
}
