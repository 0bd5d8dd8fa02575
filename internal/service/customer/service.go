package customer

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	"github.com/jwalitptl/salon-api/internal/tenant"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
	"github.com/jwalitptl/salon-api/pkg/validator"
)

type Service struct {
	tx           repository.Transactor
	repo         repository.CustomerRepository
	tenants      repository.TenantRepository
	appointments repository.AppointmentRepository
	payments     repository.PaymentRepository
	validate     validator.Validator
}

func NewService(
	tx repository.Transactor,
	repo repository.CustomerRepository,
	tenants repository.TenantRepository,
	appointments repository.AppointmentRepository,
	payments repository.PaymentRepository,
) *Service {
	return &Service{
		tx:           tx,
		repo:         repo,
		tenants:      tenants,
		appointments: appointments,
		payments:     payments,
		validate:     validator.New(),
	}
}

func normalizePhone(phone string) string {
	return strings.Join(strings.Fields(phone), "")
}

// CreateCustomer registers a customer in the caller's tenant. Phone numbers
// are unique across all tenants.
func (s *Service) CreateCustomer(ctx context.Context, req *model.CreateCustomerRequest) (*model.Customer, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	tenantID, err := tenant.Target(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	c := &model.Customer{
		TenantScoped: model.TenantScoped{TenantID: tenantID},
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        normalizePhone(req.Phone),
		Email:        req.Email,
		Address:      req.Address,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		Notes:        req.Notes,
		IsActive:     true,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensurePhoneFree(ctx, c.Phone, uuid.Nil); err != nil {
			return err
		}
		if err := s.ensureQuota(ctx, tenantID); err != nil {
			return err
		}
		return s.repo.Add(ctx, c)
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return c, nil
}

func (s *Service) ensurePhoneFree(ctx context.Context, phone string, self uuid.UUID) error {
	existing, err := s.repo.GetByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return apperrors.Conflict("phone number already registered", nil)
	}
	return nil
}

// ensureQuota counts across the whole tenant regardless of how the caller is
// scoped; tenantID has already been authorized.
func (s *Service) ensureQuota(ctx context.Context, tenantID uuid.UUID) error {
	ctx = tenant.NewContext(ctx, tenant.System())
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("tenant", err)
		}
		return err
	}
	if t.MaxCustomers <= 0 {
		return nil
	}
	n, err := s.repo.CountWhere(ctx, repository.Where("tenant_id = ?", tenantID))
	if err != nil {
		return err
	}
	if n >= t.MaxCustomers {
		return apperrors.Forbidden("customer limit reached for this subscription", nil)
	}
	return nil
}

func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("customer", err)
		}
		return nil, apperrors.Wrap(err)
	}
	return c, nil
}

func (s *Service) ListCustomers(ctx context.Context, search string) ([]*model.Customer, error) {
	customers, err := s.repo.Search(ctx, search)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return customers, nil
}

func (s *Service) ListActiveCustomers(ctx context.Context) ([]*model.Customer, error) {
	customers, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return customers, nil
}

// GetCustomerDetails loads a customer together with their appointments and
// payments. Payments are returned without installments.
func (s *Service) GetCustomerDetails(ctx context.Context, id uuid.UUID) (*model.CustomerDetails, error) {
	c, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	appointments, err := s.appointments.ListDetails(ctx, model.AppointmentFilters{CustomerID: &c.ID})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	payments, err := s.payments.ListByCustomer(ctx, c.ID)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}

	details := &model.CustomerDetails{
		Customer:         c,
		Appointments:     appointments,
		Payments:         payments,
		TotalPaid:        decimal.Zero,
		RemainingBalance: decimal.Zero,
	}
	for _, p := range payments {
		details.TotalPaid = details.TotalPaid.Add(p.PaidAmount)
		details.RemainingBalance = details.RemainingBalance.Add(p.RemainingAmount)
	}
	return details, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id uuid.UUID, req *model.UpdateCustomerRequest) (*model.Customer, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	var c *model.Customer
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = s.repo.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("customer", err)
			}
			return err
		}

		if req.Phone != nil {
			phone := normalizePhone(*req.Phone)
			if phone == "" {
				return apperrors.BadRequest("phone cannot be empty", nil)
			}
			if err := s.ensurePhoneFree(ctx, phone, c.ID); err != nil {
				return err
			}
			c.Phone = phone
		}
		if req.FirstName != nil {
			c.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			c.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Email != nil {
			c.Email = req.Email
		}
		if req.Address != nil {
			c.Address = req.Address
		}
		if req.DateOfBirth != nil {
			c.DateOfBirth = req.DateOfBirth
		}
		if req.Gender != nil {
			c.Gender = req.Gender
		}
		if req.Notes != nil {
			c.Notes = req.Notes
		}
		if req.IsActive != nil {
			c.IsActive = *req.IsActive
		}
		return s.repo.Update(ctx, c)
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return c, nil
}

// DeleteCustomer refuses to remove a customer that still has appointments.
func (s *Service) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("customer", repository.ErrNotFound)
		}
		n, err := s.appointments.CountWhere(ctx, repository.Where("customer_id = ?", id))
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.Conflict("customer has appointments", nil)
		}
		return s.repo.Delete(ctx, id)
	})
	return apperrors.Wrap(err)
}
