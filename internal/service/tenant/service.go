package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	"github.com/jwalitptl/salon-api/internal/tenant"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
	"github.com/jwalitptl/salon-api/pkg/validator"
)

type Service struct {
	tx           repository.Transactor
	repo         repository.TenantRepository
	users        repository.UserRepository
	customers    repository.CustomerRepository
	appointments repository.AppointmentRepository
	validate     validator.Validator
	now          func() time.Time
}

func NewService(
	tx repository.Transactor,
	repo repository.TenantRepository,
	users repository.UserRepository,
	customers repository.CustomerRepository,
	appointments repository.AppointmentRepository,
) *Service {
	return &Service{
		tx:           tx,
		repo:         repo,
		users:        users,
		customers:    customers,
		appointments: appointments,
		validate:     validator.New(),
		now:          time.Now,
	}
}

func requireSuperAdmin(ctx context.Context) error {
	if !tenant.FromContext(ctx).IsSuperAdmin() {
		return apperrors.Forbidden("super admin access required", nil)
	}
	return nil
}

// CreateTenant onboards a salon. Subdomains are stored lower case and must be
// unique.
func (s *Service) CreateTenant(ctx context.Context, req *model.CreateTenantRequest) (*model.Tenant, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	t := &model.Tenant{
		Name:              strings.TrimSpace(req.Name),
		Subdomain:         strings.ToLower(req.Subdomain),
		Description:       req.Description,
		ContactEmail:      req.ContactEmail,
		ContactPhone:      req.ContactPhone,
		Address:           req.Address,
		IsActive:          true,
		SubscriptionPlan:  req.SubscriptionPlan,
		SubscriptionStart: s.now().UTC(),
		SubscriptionEnd:   req.SubscriptionEnd,
		MaxUsers:          req.MaxUsers,
		MaxCustomers:      req.MaxCustomers,
	}
	if t.SubscriptionPlan == "" {
		t.SubscriptionPlan = model.PlanBasic
	}
	if t.MaxUsers == 0 {
		t.MaxUsers = model.DefaultMaxUsers
	}
	if t.MaxCustomers == 0 {
		t.MaxCustomers = model.DefaultMaxCustomers
	}
	if t.SubscriptionEnd != nil && !t.SubscriptionEnd.After(t.SubscriptionStart) {
		return nil, apperrors.BadRequest("subscription_end must be in the future", nil)
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		_, err := s.repo.GetBySubdomain(ctx, t.Subdomain)
		switch {
		case err == nil:
			return apperrors.Conflict("subdomain already in use", nil)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		return s.repo.Add(ctx, t)
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return t, nil
}

// GetTenant is open to super admins and to members of the tenant.
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	if !tenant.FromContext(ctx).HasTenantAccess(id) {
		return nil, apperrors.NotFound("tenant", repository.ErrNotFound)
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("tenant", err)
		}
		return nil, apperrors.Wrap(err)
	}
	return t, nil
}

func (s *Service) ListTenants(ctx context.Context) ([]*model.Tenant, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	tenants, err := s.repo.Find(ctx, repository.Predicate{OrderBy: "name"})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return tenants, nil
}

func (s *Service) UpdateTenant(ctx context.Context, id uuid.UUID, req *model.UpdateTenantRequest) (*model.Tenant, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	var t *model.Tenant
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if t, err = s.repo.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("tenant", err)
			}
			return err
		}
		if req.Name != nil {
			t.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			t.Description = *req.Description
		}
		if req.ContactEmail != nil {
			t.ContactEmail = *req.ContactEmail
		}
		if req.ContactPhone != nil {
			t.ContactPhone = *req.ContactPhone
		}
		if req.Address != nil {
			t.Address = *req.Address
		}
		if req.IsActive != nil {
			t.IsActive = *req.IsActive
		}
		if req.SubscriptionPlan != nil {
			t.SubscriptionPlan = *req.SubscriptionPlan
		}
		if req.SubscriptionEnd != nil {
			t.SubscriptionEnd = req.SubscriptionEnd
		}
		if req.MaxUsers != nil {
			t.MaxUsers = *req.MaxUsers
		}
		if req.MaxCustomers != nil {
			t.MaxCustomers = *req.MaxCustomers
		}
		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return t, nil
}

// DeleteTenant removes an empty tenant. Tenants with staff or customers are
// deactivated instead.
func (s *Service) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	if err := requireSuperAdmin(ctx); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("tenant", repository.ErrNotFound)
		}
		customers, err := s.customers.CountWhere(ctx, repository.Where("tenant_id = ?", id))
		if err != nil {
			return err
		}
		users, err := s.users.CountWhere(ctx, repository.Where("tenant_id = ?", id))
		if err != nil {
			return err
		}
		if customers > 0 || users > 0 {
			return apperrors.Conflict("tenant still has users or customers; deactivate it instead", nil)
		}
		return s.repo.Delete(ctx, id)
	})
	return apperrors.Wrap(err)
}

// Dashboard counts what a tenant holds.
func (s *Service) Dashboard(ctx context.Context, id uuid.UUID) (*model.TenantDashboard, error) {
	t, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	byTenant := repository.Where("tenant_id = ?", id)

	d := &model.TenantDashboard{Tenant: t}
	if d.UserCount, err = s.users.CountWhere(ctx, byTenant); err != nil {
		return nil, apperrors.Wrap(err)
	}
	if d.CustomerCount, err = s.customers.CountWhere(ctx, byTenant); err != nil {
		return nil, apperrors.Wrap(err)
	}
	if d.AppointmentCount, err = s.appointments.CountWhere(ctx, byTenant); err != nil {
		return nil, apperrors.Wrap(err)
	}
	return d, nil
}

// PlatformDashboard counts rows across every tenant.
func (s *Service) PlatformDashboard(ctx context.Context) (*model.PlatformDashboard, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}

	var (
		d   model.PlatformDashboard
		err error
	)
	if d.TenantCount, err = s.repo.Count(ctx); err != nil {
		return nil, apperrors.Wrap(err)
	}
	if d.ActiveTenantCount, err = s.repo.CountWhere(ctx, repository.Where("is_active = ?", true)); err != nil {
		return nil, apperrors.Wrap(err)
	}
	if d.UserCount, err = s.users.Count(ctx); err != nil {
		return nil, apperrors.Wrap(err)
	}
	if d.CustomerCount, err = s.customers.Count(ctx); err != nil {
		return nil, apperrors.Wrap(err)
	}
	if d.AppointmentCount, err = s.appointments.Count(ctx); err != nil {
		return nil, apperrors.Wrap(err)
	}
	return &d, nil
}
