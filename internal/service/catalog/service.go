package catalog

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

// Service manages the service types a salon offers.
type Service struct {
	tx           repository.Transactor
	repo         repository.ServiceTypeRepository
	appointments repository.AppointmentRepository
	validate     validator.Validator
}

func NewService(tx repository.Transactor, repo repository.ServiceTypeRepository, appointments repository.AppointmentRepository) *Service {
	return &Service{
		tx:           tx,
		repo:         repo,
		appointments: appointments,
		validate:     validator.New(),
	}
}

func (s *Service) CreateServiceType(ctx context.Context, req *model.CreateServiceTypeRequest) (*model.ServiceType, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, apperrors.BadRequest("price cannot be negative", nil)
	}
	if !model.IsMoney(req.Price) {
		return nil, apperrors.BadRequest("price must have at most two decimal places", nil)
	}
	tenantID, err := tenant.Target(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	st := &model.ServiceType{
		TenantScoped:    model.TenantScoped{TenantID: tenantID},
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		ImageURL:        req.ImageURL,
		IsActive:        true,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNameFree(ctx, tenantID, st.Name, uuid.Nil); err != nil {
			return err
		}
		return s.repo.Add(ctx, st)
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return st, nil
}

// ensureNameFree checks that no other service type of the tenant carries name.
func (s *Service) ensureNameFree(ctx context.Context, tenantID uuid.UUID, name string, self uuid.UUID) error {
	n, err := s.repo.CountWhere(ctx, repository.Where(
		"tenant_id = ? AND LOWER(name) = LOWER(?) AND id <> ?", tenantID, name, self,
	))
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.Conflict("service type name already exists", nil)
	}
	return nil
}

func (s *Service) GetServiceType(ctx context.Context, id uuid.UUID) (*model.ServiceType, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("service type", err)
		}
		return nil, apperrors.Wrap(err)
	}
	return st, nil
}

func (s *Service) ListServiceTypes(ctx context.Context, activeOnly bool) ([]*model.ServiceType, error) {
	var (
		types []*model.ServiceType
		err   error
	)
	if activeOnly {
		types, err = s.repo.ListActive(ctx)
	} else {
		types, err = s.repo.Find(ctx, repository.Predicate{OrderBy: "name"})
	}
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return types, nil
}

// ListByPriceRange returns the active service types priced between minPrice
// and maxPrice inclusive.
func (s *Service) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*model.ServiceType, error) {
	if minPrice.IsNegative() || maxPrice.IsNegative() {
		return nil, apperrors.BadRequest("prices cannot be negative", nil)
	}
	if maxPrice.LessThan(minPrice) {
		return nil, apperrors.BadRequest("max_price must not be below min_price", nil)
	}
	types, err := s.repo.ListByPriceRange(ctx, minPrice, maxPrice)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return types, nil
}

func (s *Service) UpdateServiceType(ctx context.Context, id uuid.UUID, req *model.UpdateServiceTypeRequest) (*model.ServiceType, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, apperrors.BadRequest("price cannot be negative", nil)
	}
	if req.Price != nil && !model.IsMoney(*req.Price) {
		return nil, apperrors.BadRequest("price must have at most two decimal places", nil)
	}

	var st *model.ServiceType
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if st, err = s.repo.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("service type", err)
			}
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperrors.BadRequest("name cannot be empty", nil)
			}
			if err := s.ensureNameFree(ctx, st.TenantID, name, st.ID); err != nil {
				return err
			}
			st.Name = name
		}
		if req.Description != nil {
			st.Description = *req.Description
		}
		if req.Price != nil {
			st.Price = *req.Price
		}
		if req.DurationMinutes != nil {
			st.DurationMinutes = *req.DurationMinutes
		}
		if req.ImageURL != nil {
			st.ImageURL = req.ImageURL
		}
		if req.IsActive != nil {
			st.IsActive = *req.IsActive
		}
		return s.repo.Update(ctx, st)
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return st, nil
}

// DeleteServiceType removes an unused service type. One that has been booked
// should be deactivated instead.
func (s *Service) DeleteServiceType(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("service type", repository.ErrNotFound)
		}
		n, err := s.appointments.CountWhere(ctx, repository.Where("service_type_id = ?", id))
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.Conflict("service type has appointments; deactivate it instead", nil)
		}
		return s.repo.Delete(ctx, id)
	})
	return apperrors.Wrap(err)
}
