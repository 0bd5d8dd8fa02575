package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
	"github.com/jwalitptl/salon-api/pkg/validator"
)

type Service struct {
	tx           repository.Transactor
	repo         repository.AppointmentRepository
	customers    repository.CustomerRepository
	serviceTypes repository.ServiceTypeRepository
	users        repository.UserRepository
	payments     repository.PaymentRepository
	validate     validator.Validator
	now          func() time.Time
}

func NewService(
	tx repository.Transactor,
	repo repository.AppointmentRepository,
	customers repository.CustomerRepository,
	serviceTypes repository.ServiceTypeRepository,
	users repository.UserRepository,
	payments repository.PaymentRepository,
) *Service {
	return &Service{
		tx:           tx,
		repo:         repo,
		customers:    customers,
		serviceTypes: serviceTypes,
		users:        users,
		payments:     payments,
		validate:     validator.New(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func notFound(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return err
}

func validateDiscount(price, discount decimal.Decimal) error {
	if discount.IsNegative() {
		return apperrors.BadRequest("discount cannot be negative", nil)
	}
	if !model.IsMoney(discount) {
		return apperrors.BadRequest("discount must have at most two decimal places", nil)
	}
	if discount.GreaterThan(price) {
		return apperrors.BadRequest("discount exceeds the service price", nil)
	}
	return nil
}

// CreateAppointment books a service for a customer. The price is taken from
// the service type at booking time.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.AppointmentDetail, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.AppointmentDate.IsZero() {
		return nil, apperrors.BadRequest("appointment_date is required", nil)
	}

	var detail *model.AppointmentDetail
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		customer, err := s.customers.GetByID(ctx, req.CustomerID)
		if err != nil {
			return notFound("customer", err)
		}
		st, err := s.serviceTypes.GetByID(ctx, req.ServiceTypeID)
		if err != nil {
			return notFound("service type", err)
		}
		if !st.IsActive {
			return apperrors.BadRequest("service type is not active", nil)
		}
		staff, err := s.users.GetByID(ctx, req.UserID)
		if err != nil {
			return notFound("user", err)
		}
		if st.TenantID != customer.TenantID || staff.GetTenantID() != customer.TenantID {
			return apperrors.BadRequest("customer, service type and user must belong to the same tenant", nil)
		}
		if err := validateDiscount(st.Price, req.DiscountAmount); err != nil {
			return err
		}

		sessions := req.TotalSessions
		if sessions <= 0 {
			sessions = 1
		}
		apt := &model.Appointment{
			TenantScoped:    model.TenantScoped{TenantID: customer.TenantID},
			CustomerID:      customer.ID,
			ServiceTypeID:   st.ID,
			UserID:          staff.ID,
			AppointmentDate: req.AppointmentDate.UTC(),
			Status:          model.AppointmentStatusScheduled,
			TotalPrice:      st.Price,
			DiscountAmount:  req.DiscountAmount,
			TotalSessions:   sessions,
			Notes:           req.Notes,
		}
		apt.Reprice()

		if err := s.repo.Add(ctx, apt); err != nil {
			return err
		}
		detail, err = s.repo.GetDetail(ctx, apt.ID)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return detail, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(notFound("appointment", err))
	}
	return detail, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	if filters.Status != nil && !filters.Status.Valid() {
		return nil, apperrors.BadRequest("invalid appointment status", nil)
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, apperrors.BadRequest("to must not be before from", nil)
	}
	list, err := s.repo.ListDetails(ctx, filters)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return list, nil
}

// Today lists the appointments of the current UTC day, earliest first.
func (s *Service) Today(ctx context.Context) ([]*model.AppointmentDetail, error) {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1).Add(-time.Second)
	return s.ListAppointments(ctx, model.AppointmentFilters{From: &start, To: &end, Ascending: true})
}

// Upcoming lists the customer's scheduled appointments from now on, earliest
// first.
func (s *Service) Upcoming(ctx context.Context, customerID uuid.UUID) ([]*model.AppointmentDetail, error) {
	now := s.now().UTC()
	status := model.AppointmentStatusScheduled
	return s.ListAppointments(ctx, model.AppointmentFilters{
		CustomerID: &customerID,
		Status:     &status,
		From:       &now,
		Ascending:  true,
	})
}

func (s *Service) ListByServiceType(ctx context.Context, serviceTypeID uuid.UUID) ([]*model.AppointmentDetail, error) {
	return s.ListAppointments(ctx, model.AppointmentFilters{ServiceTypeID: &serviceTypeID})
}

// Revenue sums the final price of the appointments completed between start
// and end inclusive.
func (s *Service) Revenue(ctx context.Context, start, end time.Time) (*model.Revenue, error) {
	if end.Before(start) {
		return nil, apperrors.BadRequest("end_date must not be before start_date", nil)
	}
	total, err := s.repo.SumFinalPrice(ctx, repository.Where(
		"status = ? AND appointment_date >= ? AND appointment_date <= ?",
		model.AppointmentStatusCompleted, start.UTC(), end.UTC(),
	))
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return &model.Revenue{TotalRevenue: total, StartDate: start, EndDate: end}, nil
}

// UpdateAppointment applies the changed fields and recomputes the final
// price and remaining sessions.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.AppointmentDetail, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperrors.BadRequest("invalid appointment status", nil)
	}

	var detail *model.AppointmentDetail
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		apt, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return notFound("appointment", err)
		}

		if req.AppointmentDate != nil {
			apt.AppointmentDate = req.AppointmentDate.UTC()
		}
		if req.Status != nil {
			apt.Status = *req.Status
		}
		if req.DiscountAmount != nil {
			if err := validateDiscount(apt.TotalPrice, *req.DiscountAmount); err != nil {
				return err
			}
			apt.DiscountAmount = *req.DiscountAmount
		}
		if req.TotalSessions != nil {
			apt.TotalSessions = *req.TotalSessions
		}
		if req.CompletedSessions != nil {
			apt.CompletedSessions = *req.CompletedSessions
		}
		if apt.CompletedSessions > apt.TotalSessions {
			return apperrors.BadRequest("completed sessions exceed total sessions", nil)
		}
		if req.UserID != nil {
			staff, err := s.users.GetByID(ctx, *req.UserID)
			if err != nil {
				return notFound("user", err)
			}
			if staff.GetTenantID() != apt.TenantID {
				return apperrors.BadRequest("user belongs to another tenant", nil)
			}
			apt.UserID = staff.ID
		}
		if req.Notes != nil {
			apt.Notes = req.Notes
		}
		apt.Reprice()

		if err := s.repo.Update(ctx, apt); err != nil {
			return notFound("appointment", err)
		}
		detail, err = s.repo.GetDetail(ctx, id)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return detail, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.AppointmentDetail, error) {
	return s.UpdateAppointment(ctx, id, &model.UpdateAppointmentRequest{Status: &status})
}

// CompleteSession records one attended session and completes the appointment
// once every session is used.
func (s *Service) CompleteSession(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	var detail *model.AppointmentDetail
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		apt, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return notFound("appointment", err)
		}
		if !apt.Status.Open() {
			return apperrors.Conflict("appointment is "+string(apt.Status), nil)
		}
		if apt.RemainingSessions <= 0 {
			return apperrors.Conflict("no sessions remaining", nil)
		}
		apt.CompletedSessions++
		apt.Reprice()
		if apt.RemainingSessions == 0 {
			apt.Status = model.AppointmentStatusCompleted
		}
		if err := s.repo.Update(ctx, apt); err != nil {
			return err
		}
		detail, err = s.repo.GetDetail(ctx, id)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return detail, nil
}

// DeleteAppointment refuses to remove an appointment that has payments.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("appointment", repository.ErrNotFound)
		}
		n, err := s.payments.CountWhere(ctx, repository.Where("appointment_id = ?", id))
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.Conflict("appointment has payments", nil)
		}
		return s.repo.Delete(ctx, id)
	})
	return apperrors.Wrap(err)
}
