package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	"github.com/jwalitptl/salon-api/internal/tenant"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
	"github.com/jwalitptl/salon-api/pkg/messaging"
	"github.com/jwalitptl/salon-api/pkg/metrics"
	"github.com/jwalitptl/salon-api/pkg/validator"
)

const (
	DefaultUpcomingWindow = 30 * 24 * time.Hour
	DefaultRecentLimit    = 10
)

type Config struct {
	// UpcomingWindow bounds the unpaid installments listed in the summary.
	UpcomingWindow time.Duration
	RecentLimit    int
}

type Service struct {
	tx           repository.Transactor
	payments     repository.PaymentRepository
	installments repository.InstallmentRepository
	appointments repository.AppointmentRepository
	publisher    messaging.Publisher
	metrics      *metrics.Metrics
	validate     validator.Validator
	cfg          Config
	now          func() time.Time
}

func NewService(
	cfg Config,
	tx repository.Transactor,
	payments repository.PaymentRepository,
	installments repository.InstallmentRepository,
	appointments repository.AppointmentRepository,
	publisher messaging.Publisher,
	m *metrics.Metrics,
) *Service {
	if cfg.UpcomingWindow <= 0 {
		cfg.UpcomingWindow = DefaultUpcomingWindow
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if publisher == nil {
		publisher = messaging.Noop{}
	}
	return &Service{
		tx:           tx,
		payments:     payments,
		installments: installments,
		appointments: appointments,
		publisher:    publisher,
		metrics:      m,
		validate:     validator.New(),
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreatePayment records a payment against an appointment together with its
// installment plan. Nothing is written unless every step succeeds.
func (s *Service) CreatePayment(ctx context.Context, req *model.CreatePaymentRequest) (payment *model.Payment, err error) {
	defer s.observe("create_payment", time.Now(), &err)

	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.AppointmentID == uuid.Nil {
		return nil, apperrors.BadRequest("appointment_id is required", nil)
	}
	if !req.TotalAmount.IsPositive() {
		return nil, apperrors.BadRequest("total amount must be greater than zero", nil)
	}
	if err := checkMoney("total amount", req.TotalAmount); err != nil {
		return nil, err
	}
	if err := checkMoney("initial payment", req.InitialPayment); err != nil {
		return nil, err
	}
	if req.InitialPayment.IsNegative() {
		return nil, apperrors.BadRequest("initial payment cannot be negative", nil)
	}
	if req.InitialPayment.GreaterThan(req.TotalAmount) {
		return nil, apperrors.BadRequest("initial payment exceeds total amount", nil)
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}
	remaining := req.TotalAmount.Sub(req.InitialPayment)

	plan, err := BuildPlan(remaining, req, paymentDate)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		apt, err := s.appointments.GetByID(ctx, req.AppointmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("appointment", err)
			}
			return err
		}
		if req.CustomerID != uuid.Nil && req.CustomerID != apt.CustomerID {
			return apperrors.BadRequest("customer does not match the appointment", nil)
		}

		p := &model.Payment{
			TenantScoped:    model.TenantScoped{TenantID: s.tenantFor(ctx, apt)},
			CustomerID:      apt.CustomerID,
			AppointmentID:   apt.ID,
			TotalAmount:     req.TotalAmount,
			PaidAmount:      req.InitialPayment,
			RemainingAmount: remaining,
			PaymentMethod:   req.PaymentMethod,
			Status:          statusOnCreate(remaining),
			PaymentDate:     paymentDate,
			Description:     strings.TrimSpace(req.Description),
			ReferenceNumber: req.ReferenceNumber,
		}
		if err := s.payments.Add(ctx, p); err != nil {
			return err
		}

		for _, inst := range plan {
			inst.PaymentID = p.ID
		}
		if err := s.installments.AddBatch(ctx, plan); err != nil {
			return err
		}

		p.Installments, err = s.installments.ListByPayment(ctx, p.ID)
		if err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, s.fail("create payment", err)
	}

	s.metrics.AddCollected("create_payment", payment.PaidAmount.InexactFloat64())
	s.publish(ctx, EventPaymentCreated, newLedgerEvent(payment, payment.PaidAmount, nil, s.now()))
	if payment.Status == model.PaymentStatusCompleted {
		s.publish(ctx, EventPaymentCompleted, newLedgerEvent(payment, decimal.Zero, nil, s.now()))
	}
	return payment, nil
}

func checkMoney(field string, d decimal.Decimal) error {
	if !model.IsMoney(d) {
		return apperrors.BadRequest(field+" must have at most two decimal places and fit the amount range", nil)
	}
	return nil
}

// statusOnCreate marks every new payment with money still owed as partial,
// including one opened with no initial payment.

func statusOnCreate(remaining decimal.Decimal) model.PaymentStatus {
	if !remaining.IsPositive() {
		return model.PaymentStatusCompleted
	}
	return model.PaymentStatusPartial
}

// tenantFor returns the tenant a new payment belongs to: the appointment's
// for super admins, the caller's otherwise.
func (s *Service) tenantFor(ctx context.Context, apt *model.Appointment) uuid.UUID {
	scope := tenant.FromContext(ctx)
	if scope.IsSuperAdmin() {
		return apt.TenantID
	}
	if id, ok := scope.CurrentTenantID(); ok {
		return id
	}
	return apt.TenantID
}

// PayInstallment settles one installment and moves its amount onto the parent
// payment. Paying an installment twice is a conflict.
func (s *Service) PayInstallment(ctx context.Context, id uuid.UUID, req *model.PayInstallmentRequest) (paid *model.PaymentInstallment, err error) {
	defer s.observe("pay_installment", time.Now(), &err)

	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	var payment *model.Payment
	var applied decimal.Decimal

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		inst, err := s.installments.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("installment", err)
			}
			return err
		}
		if inst.IsPaid {
			return apperrors.Conflict("installment already paid", nil)
		}

		now := s.now()
		if err := s.installments.MarkPaid(ctx, id, now, req.PaymentMethod, req.Notes); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperrors.Conflict("installment already paid", err)
			}
			return err
		}

		before, err := s.payments.GetByID(ctx, inst.PaymentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("payment", err)
			}
			return err
		}
		applied = s.applicable(before, inst.Amount)

		if err := s.payments.ApplyPayment(ctx, inst.PaymentID, inst.Amount, nil, "", now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("payment", err)
			}
			return err
		}

		if paid, err = s.installments.GetByID(ctx, id); err != nil {
			return err
		}
		payment, err = s.payments.GetByID(ctx, inst.PaymentID)
		return err
	})
	if err != nil {
		return nil, s.fail("pay installment", err)
	}

	s.metrics.AddCollected("pay_installment", applied.InexactFloat64())
	s.publish(ctx, EventInstallmentPaid, newLedgerEvent(payment, applied, &paid.ID, s.now()))
	if payment.Status == model.PaymentStatusCompleted {
		s.publish(ctx, EventPaymentCompleted, newLedgerEvent(payment, decimal.Zero, nil, s.now()))
	}
	return paid, nil
}

// AddPayment applies an ad-hoc amount to a payment. Only what is still owed
// is applied; the remaining amount never goes below zero.
func (s *Service) AddPayment(ctx context.Context, id uuid.UUID, req *model.AddPaymentRequest) (payment *model.Payment, err error) {
	defer s.observe("add_payment", time.Now(), &err)

	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.BadRequest("payment amount must be greater than zero", nil)
	}
	if err := checkMoney("payment amount", req.Amount); err != nil {
		return nil, err
	}

	var applied decimal.Decimal
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		before, err := s.payments.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("payment", err)
			}
			return err
		}
		applied = s.applicable(before, req.Amount)

		method := req.PaymentMethod
		if err := s.payments.ApplyPayment(ctx, id, req.Amount, &method, strings.TrimSpace(req.Description), s.now()); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("payment", err)
			}
			return err
		}

		if payment, err = s.payments.GetByID(ctx, id); err != nil {
			return err
		}
		payment.Installments, err = s.installments.ListByPayment(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.fail("add payment", err)
	}

	s.metrics.AddCollected("add_payment", applied.InexactFloat64())
	s.publish(ctx, EventPaymentToppedUp, newLedgerEvent(payment, applied, nil, s.now()))
	if payment.Status == model.PaymentStatusCompleted {
		s.publish(ctx, EventPaymentCompleted, newLedgerEvent(payment, decimal.Zero, nil, s.now()))
	}
	return payment, nil
}

// UpdatePayment changes descriptive fields only. Balances are moved by the
// ledger operations.
func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, req *model.UpdatePaymentRequest) (*model.Payment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	var payment *model.Payment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.payments.UpdateDetails(ctx, id, req, s.now()); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("payment", err)
			}
			return err
		}
		var err error
		if payment, err = s.payments.GetByID(ctx, id); err != nil {
			return err
		}
		payment.Installments, err = s.installments.ListByPayment(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.fail("update payment", err)
	}
	return payment, nil
}

// DeletePayment removes a payment and its installments.
func (s *Service) DeletePayment(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.payments.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("payment", repository.ErrNotFound)
		}
		if err := s.installments.DeleteByPayment(ctx, id); err != nil {
			return err
		}
		return s.payments.Delete(ctx, id)
	})
	if err != nil {
		return s.fail("delete payment", err)
	}
	return nil
}

// applicable returns how much of amount the payment can absorb and logs the
// part that is dropped.
func (s *Service) applicable(p *model.Payment, amount decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(p.RemainingAmount) {
		return amount
	}
	applied := decimal.Max(p.RemainingAmount, decimal.Zero)
	log.Warn().
		Str("payment_id", p.ID.String()).
		Str("amount", amount.String()).
		Str("remaining", p.RemainingAmount.String()).
		Str("excess", amount.Sub(applied).String()).
		Msg("payment exceeds remaining balance; excess not applied")
	return applied
}

func (s *Service) fail(op string, err error) error {
	err = apperrors.Wrap(err)
	if apperrors.RollbackFailed(err) {
		log.Error().Err(err).Str("operation", op).Bool("rollback_failed", true).Msg("transaction rollback failed")
	} else if apperrors.Is(err, apperrors.ErrInternal) {
		log.Error().Err(err).Str("operation", op).Msg("ledger operation failed")
	}
	return err
}

func (s *Service) observe(op string, start time.Time, err *error) {
	s.metrics.ObserveLedger(op, start, *err)
}
