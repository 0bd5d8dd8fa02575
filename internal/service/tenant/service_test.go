package tenant

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository/postgres"
	"github.com/jwalitptl/salon-api/internal/testutil"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

func newService(db *sqlx.DB) *Service {
	return NewService(
		postgres.NewTransactor(db),
		postgres.NewTenantRepository(db),
		postgres.NewUserRepository(db),
		postgres.NewCustomerRepository(db),
		postgres.NewAppointmentRepository(db),
	)
}

func TestCreateTenantDefaults(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newService(db)
	ctx := testutil.SuperAdminCtx()

	tn, err := svc.CreateTenant(ctx, &model.CreateTenantRequest{Name: "Cedar", Subdomain: "Cedar"})
	require.NoError(t, err)
	assert.Equal(t, "cedar", tn.Subdomain)
	assert.Equal(t, model.PlanBasic, tn.SubscriptionPlan)
	assert.Equal(t, model.DefaultMaxUsers, tn.MaxUsers)
	assert.Equal(t, model.DefaultMaxCustomers, tn.MaxCustomers)
	assert.True(t, tn.IsActive)

	_, err = svc.CreateTenant(ctx, &model.CreateTenantRequest{Name: "Cedar 2", Subdomain: "CEDAR"})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = svc.CreateTenant(ctx, &model.CreateTenantRequest{Name: "Bad", Subdomain: "has space"})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	past := time.Now().Add(-time.Hour)
	_, err = svc.CreateTenant(ctx, &model.CreateTenantRequest{Name: "Old", Subdomain: "old", SubscriptionEnd: &past})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestTenantAccess(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	b := testutil.SeedSalon(t, db, "bloom", "+900000000002")
	svc := newService(db)

	_, err := svc.CreateTenant(a.Ctx(), &model.CreateTenantRequest{Name: "Cedar", Subdomain: "cedar"})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.ListTenants(a.Ctx())
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	own, err := svc.GetTenant(a.Ctx(), a.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "aurora", own.Subdomain)

	_, err = svc.GetTenant(a.Ctx(), b.Tenant.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	all, err := svc.ListTenants(testutil.SuperAdminCtx())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateDeleteAndDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	testutil.SeedAppointment(t, db, a, 100, model.AppointmentStatusScheduled)
	svc := newService(db)
	ctx := testutil.SuperAdminCtx()

	inactive := false
	plan := model.PlanPremium
	tn, err := svc.UpdateTenant(ctx, a.Tenant.ID, &model.UpdateTenantRequest{IsActive: &inactive, SubscriptionPlan: &plan})
	require.NoError(t, err)
	assert.False(t, tn.IsActive)
	assert.Equal(t, model.PlanPremium, tn.SubscriptionPlan)

	d, err := svc.Dashboard(ctx, a.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.UserCount)
	assert.Equal(t, 1, d.CustomerCount)
	assert.Equal(t, 1, d.AppointmentCount)

	assert.True(t, apperrors.Is(svc.DeleteTenant(ctx, a.Tenant.ID), apperrors.ErrConflict))

	empty := testutil.SeedTenant(t, db, "cedar")
	require.NoError(t, svc.DeleteTenant(ctx, empty.ID))
	_, err = svc.GetTenant(ctx, empty.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestPlatformDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	testutil.SeedSalon(t, db, "bloom", "+900000000002")
	testutil.SeedAppointment(t, db, a, 100, model.AppointmentStatusScheduled)
	_, err := db.Exec("UPDATE tenants SET is_active = 0 WHERE id = ?", a.Tenant.ID)
	require.NoError(t, err)
	svc := newService(db)

	d, err := svc.PlatformDashboard(testutil.SuperAdminCtx())
	require.NoError(t, err)
	assert.Equal(t, 2, d.TenantCount)
	assert.Equal(t, 1, d.ActiveTenantCount)
	assert.Equal(t, 2, d.UserCount)
	assert.Equal(t, 2, d.CustomerCount)
	assert.Equal(t, 1, d.AppointmentCount)

	_, err = svc.PlatformDashboard(a.Ctx())
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}
