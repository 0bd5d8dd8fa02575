package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/salon-api/internal/tenant"
)

func TestDeriveStatus(t *testing.T) {
	d := decimal.NewFromInt

	assert.Equal(t, PaymentStatusPending, DeriveStatus(d(0), d(100)))
	assert.Equal(t, PaymentStatusPartial, DeriveStatus(d(40), d(60)))
	assert.Equal(t, PaymentStatusCompleted, DeriveStatus(d(100), d(0)))
	assert.Equal(t, PaymentStatusCompleted, DeriveStatus(d(0), d(0)))
}

func TestIsMoney(t *testing.T) {
	d := decimal.RequireFromString

	assert.True(t, IsMoney(d("0")))
	assert.True(t, IsMoney(d("12.5")))
	assert.True(t, IsMoney(d("-3.75")))
	assert.True(t, IsMoney(MaxMoney))
	assert.False(t, IsMoney(d("0.005")))
	assert.False(t, IsMoney(d("10.001")))
	assert.False(t, IsMoney(MaxMoney.Add(d("0.01"))))
}

func TestAppointmentReprice(t *testing.T) {
	apt := &Appointment{
		TotalPrice:        decimal.NewFromInt(250),
		DiscountAmount:    decimal.NewFromInt(50),
		TotalSessions:     6,
		CompletedSessions: 2,
	}
	apt.Reprice()

	assert.True(t, apt.FinalPrice.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 4, apt.RemainingSessions)

	apt.DiscountAmount = decimal.NewFromInt(300)
	apt.CompletedSessions = 8
	apt.Reprice()
	assert.True(t, apt.FinalPrice.IsZero())
	assert.Equal(t, 0, apt.RemainingSessions)
}

func TestTenantServiceable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	assert.True(t, (&Tenant{IsActive: true}).Serviceable(now))
	assert.False(t, (&Tenant{IsActive: false}).Serviceable(now))
	assert.False(t, (&Tenant{IsActive: true, SubscriptionEnd: &past}).Serviceable(now))
}

func TestUserTenantAccessors(t *testing.T) {
	u := &User{}
	assert.Equal(t, uuid.Nil, u.GetTenantID())

	id := uuid.New()
	u.SetTenantID(id)
	assert.Equal(t, id, u.GetTenantID())

	u.SetTenantID(uuid.Nil)
	assert.Nil(t, u.TenantID)

	admin := &User{Role: tenant.RoleSuperAdmin}
	admin.SetTenantID(id)
	assert.Nil(t, admin.TenantID)
}

func TestEntitiesDeclareTenantCapability(t *testing.T) {
	var (
		_ TenantOwned = (*Customer)(nil)
		_ TenantOwned = (*ServiceType)(nil)
		_ TenantOwned = (*Appointment)(nil)
		_ TenantOwned = (*Payment)(nil)
		_ TenantOwned = (*User)(nil)
	)

	_, ok := any(&Tenant{}).(TenantOwned)
	assert.False(t, ok)
	_, ok = any(&PaymentInstallment{}).(TenantOwned)
	assert.False(t, ok)
}

func TestBaseTouch(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &Base{}
	b.Touch(created)
	assert.Equal(t, created, b.CreatedAt)

	later := created.Add(time.Hour)
	b.Touch(later)
	assert.Equal(t, created, b.CreatedAt)
	assert.Equal(t, later, b.UpdatedAt)
}
