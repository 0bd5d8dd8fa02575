package catalog

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository/postgres"
	"github.com/jwalitptl/salon-api/internal/testutil"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

func newService(db *sqlx.DB) *Service {
	return NewService(postgres.NewTransactor(db), postgres.NewServiceTypeRepository(db), postgres.NewAppointmentRepository(db))
}

func TestServiceTypeNamesAreUniquePerTenant(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	b := testutil.SeedSalon(t, db, "bloom", "+900000000002")
	svc := newService(db)

	_, err := svc.CreateServiceType(a.Ctx(), &model.CreateServiceTypeRequest{Name: "laser", Price: testutil.Money(80)})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	st, err := svc.CreateServiceType(a.Ctx(), &model.CreateServiceTypeRequest{Name: " Manicure ", Price: testutil.Money(40), DurationMinutes: 45})
	require.NoError(t, err)
	assert.Equal(t, "Manicure", st.Name)
	assert.Equal(t, a.Tenant.ID, st.TenantID)

	other, err := svc.CreateServiceType(b.Ctx(), &model.CreateServiceTypeRequest{Name: "Manicure", Price: testutil.Money(45)})
	require.NoError(t, err)
	assert.Equal(t, b.Tenant.ID, other.TenantID)

	rename := "Laser"
	_, err = svc.UpdateServiceType(a.Ctx(), st.ID, &model.UpdateServiceTypeRequest{Name: &rename})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestCreateServiceTypeRejectsNegativePrice(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")

	_, err := newService(db).CreateServiceType(a.Ctx(), &model.CreateServiceTypeRequest{Name: "Peel", Price: decimal.NewFromInt(-1)})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestServiceTypePriceKeepsCents(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	svc := newService(db)

	_, err := svc.CreateServiceType(a.Ctx(), &model.CreateServiceTypeRequest{Name: "Peel", Price: decimal.RequireFromString("19.999")})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	price := decimal.RequireFromString("0.001")
	_, err = svc.UpdateServiceType(a.Ctx(), a.Service.ID, &model.UpdateServiceTypeRequest{Price: &price})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	price = decimal.RequireFromString("19.99")
	st, err := svc.UpdateServiceType(a.Ctx(), a.Service.ID, &model.UpdateServiceTypeRequest{Price: &price})
	require.NoError(t, err)
	assert.True(t, st.Price.Equal(price))
}

func TestListAndDeactivate(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	svc := newService(db)

	inactive := false
	_, err := svc.UpdateServiceType(a.Ctx(), a.Service.ID, &model.UpdateServiceTypeRequest{IsActive: &inactive})
	require.NoError(t, err)

	active, err := svc.ListServiceTypes(a.Ctx(), true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListServiceTypes(a.Ctx(), false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteServiceType(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	b := testutil.SeedSalon(t, db, "bloom", "+900000000002")
	svc := newService(db)

	testutil.SeedAppointment(t, db, a, 100, model.AppointmentStatusScheduled)
	assert.True(t, apperrors.Is(svc.DeleteServiceType(a.Ctx(), a.Service.ID), apperrors.ErrConflict))
	assert.True(t, apperrors.Is(svc.DeleteServiceType(a.Ctx(), b.Service.ID), apperrors.ErrNotFound))

	require.NoError(t, svc.DeleteServiceType(b.Ctx(), b.Service.ID))
	_, err := svc.GetServiceType(b.Ctx(), b.Service.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListByPriceRange(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	testutil.SeedSalon(t, db, "bloom", "+900000000002")
	svc := newService(db)

	cheap := testutil.SeedServiceType(t, db, a.Tenant.ID, "Manicure", 40)
	retired := testutil.SeedServiceType(t, db, a.Tenant.ID, "Waxing", 60)
	inactive := false
	_, err := svc.UpdateServiceType(a.Ctx(), retired.ID, &model.UpdateServiceTypeRequest{IsActive: &inactive})
	require.NoError(t, err)

	types, err := svc.ListByPriceRange(a.Ctx(), testutil.Money(40), testutil.Money(100))
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, cheap.ID, types[0].ID)
	assert.Equal(t, a.Service.ID, types[1].ID)

	types, err = svc.ListByPriceRange(a.Ctx(), decimal.RequireFromString("40.01"), testutil.Money(99))
	require.NoError(t, err)
	assert.Empty(t, types)

	_, err = svc.ListByPriceRange(a.Ctx(), testutil.Money(100), testutil.Money(40))
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	_, err = svc.ListByPriceRange(a.Ctx(), decimal.NewFromInt(-1), testutil.Money(40))
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}
