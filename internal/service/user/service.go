package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	"github.com/jwalitptl/salon-api/internal/tenant"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
	"github.com/jwalitptl/salon-api/pkg/security"
	"github.com/jwalitptl/salon-api/pkg/validator"
)

type Service struct {
	tx           repository.Transactor
	repo         repository.UserRepository
	tenants      repository.TenantRepository
	appointments repository.AppointmentRepository
	hasher       security.PasswordHasher
	validate     validator.Validator
}

func NewService(
	tx repository.Transactor,
	repo repository.UserRepository,
	tenants repository.TenantRepository,
	appointments repository.AppointmentRepository,
	hasher security.PasswordHasher,
) *Service {
	return &Service{
		tx:           tx,
		repo:         repo,
		tenants:      tenants,
		appointments: appointments,
		hasher:       hasher,
		validate:     validator.New(),
	}
}

// CreateUser adds a staff member or a super admin. Super admins never belong
// to a tenant; every other role belongs to exactly one.
func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, apperrors.BadRequest("invalid role", nil)
	}

	scope := tenant.FromContext(ctx)
	var tenantID *uuid.UUID

	if req.Role == tenant.RoleSuperAdmin {
		if !scope.IsSuperAdmin() {
			return nil, apperrors.Forbidden("only super admins can create super admins", nil)
		}
		if req.TenantID != nil && *req.TenantID != uuid.Nil {
			return nil, apperrors.BadRequest("super admins cannot belong to a tenant", nil)
		}
	} else {
		if !scope.IsSuperAdmin() && scope.Identity().Role != tenant.RoleTenantAdmin {
			return nil, apperrors.Forbidden("insufficient role to manage users", nil)
		}
		id, err := tenant.Target(ctx, req.TenantID)
		if err != nil {
			return nil, err
		}
		tenantID = &id
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.BadRequest("password too short", err)
		}
		return nil, apperrors.Internal(err)
	}

	u := &model.User{
		TenantID:     tenantID,
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         req.Role,
		IsActive:     true,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		taken, err := s.repo.LoginTaken(ctx, u.Username, u.Email, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.Conflict("username or email already in use", nil)
		}
		if tenantID != nil {
			if err := s.ensureQuota(ctx, *tenantID); err != nil {
				return err
			}
		}
		return s.repo.Add(ctx, u)
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return u, nil
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
	if t.MaxUsers <= 0 {
		return nil
	}
	n, err := s.repo.CountWhere(ctx, repository.Where("tenant_id = ?", tenantID))
	if err != nil {
		return err
	}
	if n >= t.MaxUsers {
		return apperrors.Forbidden("user limit reached for this subscription", nil)
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Wrap(err)
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.Find(ctx, repository.Predicate{OrderBy: "username"})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return users, nil
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	var hash string
	if req.Password != nil {
		var err error
		if hash, err = s.hasher.Hash(*req.Password); err != nil {
			if errors.Is(err, security.ErrPasswordTooShort) {
				return nil, apperrors.BadRequest("password too short", err)
			}
			return nil, apperrors.Internal(err)
		}
	}

	var u *model.User
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if u, err = s.repo.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("user", err)
			}
			return err
		}

		if req.Role != nil {
			if !req.Role.Valid() {
				return apperrors.BadRequest("invalid role", nil)
			}
			if (*req.Role == tenant.RoleSuperAdmin) != (u.TenantID == nil) {
				return apperrors.BadRequest("role change would break tenant membership", nil)
			}
			if *req.Role == tenant.RoleSuperAdmin && !tenant.FromContext(ctx).IsSuperAdmin() {
				return apperrors.Forbidden("only super admins can grant super admin", nil)
			}
			u.Role = *req.Role
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			taken, err := s.repo.LoginTaken(ctx, u.Username, email, u.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.Conflict("username or email already in use", nil)
			}
			u.Email = email
		}
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.Phone != nil {
			u.Phone = req.Phone
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		return s.repo.Update(ctx, u)
	})
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	return u, nil
}

// DeleteUser removes a user with no booked appointments. Callers cannot
// delete themselves.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if tenant.FromContext(ctx).Identity().UserID == id.String() {
		return apperrors.BadRequest("cannot delete yourself", nil)
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("user", repository.ErrNotFound)
		}
		n, err := s.appointments.CountWhere(ctx, repository.Where("user_id = ?", id))
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.Conflict("user has appointments; deactivate instead", nil)
		}
		return s.repo.Delete(ctx, id)
	})
	return apperrors.Wrap(err)
}
