package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/pkg/auth"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
	"github.com/jwalitptl/salon-api/pkg/security"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

var errInvalidCredentials = apperrors.Unauthorized("invalid credentials", nil)

type Service struct {
	users    repository.UserRepository
	tenants  repository.TenantRepository
	hasher   security.PasswordHasher
	jwt      auth.JWTService
	attempts *cache.Cache
	now      func() time.Time
}

func NewService(
	users repository.UserRepository,
	tenants repository.TenantRepository,
	hasher security.PasswordHasher,
	jwt auth.JWTService,
) *Service {
	return &Service{
		users:    users,
		tenants:  tenants,
		hasher:   hasher,
		jwt:      jwt,
		attempts: cache.New(lockoutDuration, 2*lockoutDuration),
		now:      time.Now,
	}
}

// Login exchanges a username or email plus password for an access token.
// Repeated failures lock the login out for lockoutDuration.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	key := strings.ToLower(strings.TrimSpace(req.Login))
	if n, ok := s.attempts.Get(key); ok && n.(int) >= maxLoginAttempts {
		return nil, apperrors.Unauthorized("account is locked, please try again later", nil)
	}

	user, err := s.users.GetByLogin(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(key)
			return nil, errInvalidCredentials
		}
		return nil, apperrors.Wrap(err)
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.recordFailure(key)
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is disabled", nil)
	}

	if user.TenantID != nil {
		t, err := s.tenants.GetByID(tenant.NewContext(ctx, tenant.System()), *user.TenantID)
		if err != nil {
			return nil, apperrors.Wrap(err)
		}
		if !t.Serviceable(s.now()) {
			return nil, apperrors.Forbidden("tenant is inactive or its subscription has ended", nil)
		}
	}

	s.attempts.Delete(key)
	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record last login")
	} else {
		user.LastLoginAt = &now
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("user logged in")

	return &model.LoginResponse{
		Token:     token,
		ExpiresIn: int64(expiresAt.Sub(now).Seconds()),
		User:      user,
	}, nil
}

func (s *Service) recordFailure(key string) {
	if _, err := s.attempts.IncrementInt(key, 1); err != nil {
		s.attempts.Set(key, 1, cache.DefaultExpiration)
	}
}

// CurrentUser returns the user behind the request's token.
func (s *Service) CurrentUser(ctx context.Context) (*model.User, error) {
	id, err := uuid.Parse(tenant.FromContext(ctx).Identity().UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token subject", err)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Wrap(err)
	}
	return u, nil
}
