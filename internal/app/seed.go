package app

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	"github.com/jwalitptl/salon-api/internal/repository/postgres"
	"github.com/jwalitptl/salon-api/internal/service/user"
	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/pkg/security"
)

// SeedSuperAdmin creates the first super admin from req. It does nothing and
// returns nil when a super admin already exists, so it is safe to rerun.
func SeedSuperAdmin(ctx context.Context, db *sqlx.DB, req *model.CreateUserRequest, bcryptCost int) (*model.User, error) {
	ctx = tenant.NewContext(ctx, tenant.System())
	users := postgres.NewUserRepository(db)

	n, err := users.CountWhere(ctx, repository.Where("role = ?", tenant.RoleSuperAdmin))
	if err != nil {
		return nil, err
	}
	if n > 0 {
		log.Info().Int("super_admins", n).Msg("super admin already present, skipping seed")
		return nil, nil
	}

	req.Role = tenant.RoleSuperAdmin
	req.TenantID = nil
	svc := user.NewService(
		postgres.NewTransactor(db),
		users,
		postgres.NewTenantRepository(db),
		postgres.NewAppointmentRepository(db),
		security.NewBcryptHasher(bcryptCost),
	)
	u, err := svc.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", u.ID.String()).Str("username", u.Username).Msg("seeded super admin")
	return u, nil
}
