package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/internal/testutil"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

func seedTwoSalons(t *testing.T) (*sqlx.DB, *testutil.Salon, *testutil.Salon) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "glow", "5550001")
	b := testutil.SeedSalon(t, db, "shine", "5550002")
	return db, a, b
}

func TestScopedReadsNeverCrossTenants(t *testing.T) {
	db, a, b := seedTwoSalons(t)
	testutil.SeedCustomer(t, db, a.Tenant.ID, "5550003")
	repo := NewCustomerRepository(db)
	ctx := a.Ctx()

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, c := range all {
		assert.Equal(t, a.Tenant.ID, c.TenantID)
	}

	_, err = repo.GetByID(ctx, b.Customer.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	found, err := repo.Find(ctx, repository.Where("phone = ?", b.Customer.Phone))
	require.NoError(t, err)
	assert.Empty(t, found)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	exists, err := repo.Exists(ctx, b.Customer.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestScopedSuperAdminSeesEverything(t *testing.T) {
	db, a, b := seedTwoSalons(t)
	repo := NewCustomerRepository(db)

	all, err := repo.GetAll(testutil.SuperAdminCtx())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.GetByID(testutil.SuperAdminCtx(), b.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Tenant.ID, got.TenantID)

	n, err := repo.CountWhere(testutil.SuperAdminCtx(), repository.Where("tenant_id = ?", a.Tenant.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScopedWithoutTenantSeesNothing(t *testing.T) {
	db, a, _ := seedTwoSalons(t)
	repo := NewCustomerRepository(db)

	for name, ctx := range map[string]context.Context{
		"no tenant claim": testutil.NoTenantCtx(),
		"anonymous":       context.Background(),
	} {
		t.Run(name, func(t *testing.T) {
			all, err := repo.GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)

			found, err := repo.Find(ctx, repository.Where("phone = ?", a.Customer.Phone))
			require.NoError(t, err)
			assert.Empty(t, found)

			_, err = repo.GetByID(ctx, a.Customer.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestGlobalEntitiesAreNotFiltered(t *testing.T) {
	db, a, b := seedTwoSalons(t)
	repo := NewTenantRepository(db)

	all, err := repo.GetAll(a.Ctx())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.GetByID(a.Ctx(), b.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "shine", got.Subdomain)

	bySub, err := repo.GetBySubdomain(a.Ctx(), "SHINE")
	require.NoError(t, err)
	assert.Equal(t, b.Tenant.ID, bySub.ID)

	all, err = repo.GetAll(testutil.SuperAdminCtx())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGlobalEntitiesHiddenWithoutTenant(t *testing.T) {
	db, a, _ := seedTwoSalons(t)
	repo := NewTenantRepository(db)

	for name, ctx := range map[string]context.Context{
		"no tenant claim": testutil.NoTenantCtx(),
		"anonymous":       context.Background(),
	} {
		t.Run(name, func(t *testing.T) {
			all, err := repo.GetAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)

			_, err = repo.GetByID(ctx, a.Tenant.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)

			n, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestPinnedSuperAdminActsAsTenant(t *testing.T) {
	db, a, b := seedTwoSalons(t)
	repo := NewCustomerRepository(db)

	scope := tenant.System()
	scope.SetTenantID(a.Tenant.ID)
	ctx := tenant.NewContext(context.Background(), scope)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, a.Customer.ID, all[0].ID)

	_, err = repo.GetByID(ctx, b.Customer.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	c := &model.Customer{FirstName: "Lale", LastName: "Aksoy", Phone: "5550199", IsActive: true}
	require.NoError(t, repo.Add(ctx, c))
	assert.Equal(t, a.Tenant.ID, c.TenantID)

	preset := &model.Customer{
		TenantScoped: model.TenantScoped{TenantID: b.Tenant.ID},
		FirstName:    "Nil",
		LastName:     "Tas",
		Phone:        "5550198",
	}
	require.NoError(t, repo.Add(ctx, preset))
	assert.Equal(t, b.Tenant.ID, preset.TenantID)

	admin := &model.User{Username: "ops", Email: "ops@example.com", PasswordHash: "x", FirstName: "O", LastName: "P", Role: tenant.RoleSuperAdmin, IsActive: true}
	require.NoError(t, NewUserRepository(db).Add(ctx, admin))
	assert.Nil(t, admin.TenantID)
}

func TestAddStampsTenant(t *testing.T) {
	db, a, b := seedTwoSalons(t)
	repo := NewCustomerRepository(db)

	unset := &model.Customer{FirstName: "Deniz", LastName: "Kaya", Phone: "5550101", IsActive: true}
	require.NoError(t, repo.Add(a.Ctx(), unset))
	assert.NotEqual(t, uuid.Nil, unset.ID)
	assert.Equal(t, a.Tenant.ID, unset.TenantID)
	assert.False(t, unset.CreatedAt.IsZero())

	preset := &model.Customer{
		TenantScoped: model.TenantScoped{TenantID: b.Tenant.ID},
		FirstName:    "Ece",
		LastName:     "Yilmaz",
		Phone:        "5550102",
	}
	require.NoError(t, repo.Add(a.Ctx(), preset))
	assert.Equal(t, b.Tenant.ID, preset.TenantID)

	stored, err := repo.GetByID(testutil.SuperAdminCtx(), preset.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Tenant.ID, stored.TenantID)
}

func TestAddBySuperAdminKeepsUnsetTenant(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)

	admin := &model.User{
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: "x",
		FirstName:    "Root",
		LastName:     "Admin",
		Role:         "SuperAdmin",
		IsActive:     true,
	}
	require.NoError(t, repo.Add(testutil.SuperAdminCtx(), admin))
	assert.Nil(t, admin.TenantID)
}

func TestUpdateIsScoped(t *testing.T) {
	db, a, b := seedTwoSalons(t)
	repo := NewCustomerRepository(db)

	foreign, err := repo.GetByID(testutil.SuperAdminCtx(), b.Customer.ID)
	require.NoError(t, err)
	foreign.FirstName = "Hijacked"
	foreign.TenantID = a.Tenant.ID
	assert.ErrorIs(t, repo.Update(a.Ctx(), foreign), repository.ErrNotFound)

	own, err := repo.GetByID(a.Ctx(), a.Customer.ID)
	require.NoError(t, err)
	own.FirstName = "Selin"
	own.TenantID = b.Tenant.ID
	require.NoError(t, repo.Update(a.Ctx(), own))

	reloaded, err := repo.GetByID(a.Ctx(), a.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Selin", reloaded.FirstName)
	assert.Equal(t, a.Tenant.ID, reloaded.TenantID)

	untouched, err := repo.GetByID(testutil.SuperAdminCtx(), b.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ayla", untouched.FirstName)
}

func TestDeleteIsScoped(t *testing.T) {
	db, a, b := seedTwoSalons(t)
	repo := NewCustomerRepository(db)
	extra := testutil.SeedCustomer(t, db, a.Tenant.ID, "5550200")

	require.NoError(t, repo.Delete(a.Ctx(), b.Customer.ID))
	exists, err := repo.Exists(testutil.SuperAdminCtx(), b.Customer.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(a.Ctx(), extra.ID))
	exists, err = repo.Exists(a.Ctx(), extra.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, repo.Delete(a.Ctx(), uuid.New()))
}

func TestWithTxRollsBack(t *testing.T) {
	db, a, _ := seedTwoSalons(t)
	repo := NewCustomerRepository(db)
	tx := NewTransactor(db)
	boom := errors.New("boom")

	err := tx.WithTx(a.Ctx(), func(ctx context.Context) error {
		require.NoError(t, repo.Add(ctx, &model.Customer{FirstName: "Tx", LastName: "User", Phone: "5550300"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := repo.Find(a.Ctx(), repository.Where("phone = ?", "5550300"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestWithTxNestedJoinsOuter(t *testing.T) {
	db, a, _ := seedTwoSalons(t)
	repo := NewCustomerRepository(db)
	tx := NewTransactor(db)

	err := tx.WithTx(a.Ctx(), func(ctx context.Context) error {
		return tx.WithTx(ctx, func(ctx context.Context) error {
			return repo.Add(ctx, &model.Customer{FirstName: "Nested", LastName: "User", Phone: "5550301"})
		})
	})
	require.NoError(t, err)

	n, err := repo.CountWhere(a.Ctx(), repository.Where("phone = ?", "5550301"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWithTxReportsFailedRollback(t *testing.T) {
	db := testutil.NewDB(t)
	tx := NewTransactor(db)
	cause := errors.New("insert failed")

	err := tx.WithTx(context.Background(), func(ctx context.Context) error {
		// finish the transaction early so the deferred rollback fails
		require.NoError(t, ctx.Value(txKey{}).(*sqlx.Tx).Rollback())
		return cause
	})

	var rbErr *apperrors.RollbackError
	require.ErrorAs(t, err, &rbErr)
	assert.ErrorIs(t, err, cause)
	assert.Error(t, rbErr.RollbackErr)
}

func TestScopeClause(t *testing.T) {
	r := NewBaseRepository(nil)
	id := uuid.New()

	clause, args := r.scopeClause(testutil.SuperAdminCtx(), "tenant_id")
	assert.Equal(t, "1 = 1", clause)
	assert.Empty(t, args)

	clause, args = r.scopeClause(testutil.NoTenantCtx(), "tenant_id")
	assert.Equal(t, "1 = 0", clause)
	assert.Empty(t, args)

	clause, args = r.scopeClause(testutil.TenantCtx(id), "p.tenant_id")
	assert.Equal(t, "p.tenant_id = ?", clause)
	assert.Equal(t, []interface{}{id}, args)
}
