// Package testutil provides an in-memory database with the salon schema and
// fixtures for repository and service tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/tenant"
)

// schema mirrors migrations/000001_init.up.sql in SQLite types.
const schema = `
CREATE TABLE tenants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	subdomain TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	contact_email TEXT NOT NULL DEFAULT '',
	contact_phone TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT 1,
	subscription_plan TEXT NOT NULL DEFAULT 'basic',
	subscription_start TIMESTAMP NOT NULL,
	subscription_end TIMESTAMP,
	max_users INTEGER NOT NULL DEFAULT 5,
	max_customers INTEGER NOT NULL DEFAULT 100,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE users (
	id TEXT PRIMARY KEY,
	tenant_id TEXT REFERENCES tenants(id) ON DELETE SET NULL,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	phone TEXT,
	role TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	last_login_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE customers (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE RESTRICT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	phone TEXT NOT NULL UNIQUE,
	email TEXT,
	address TEXT,
	date_of_birth TIMESTAMP,
	gender TEXT,
	notes TEXT,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE service_types (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE RESTRICT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price NUMERIC(12,2) NOT NULL,
	duration_minutes INTEGER NOT NULL DEFAULT 0,
	image_url TEXT,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE (tenant_id, name)
);

CREATE TABLE appointments (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE RESTRICT,
	customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE RESTRICT,
	service_type_id TEXT NOT NULL REFERENCES service_types(id) ON DELETE RESTRICT,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
	appointment_date TIMESTAMP NOT NULL,
	status TEXT NOT NULL,
	total_price NUMERIC(12,2) NOT NULL,
	discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	final_price NUMERIC(12,2) NOT NULL,
	total_sessions INTEGER NOT NULL DEFAULT 1,
	completed_sessions INTEGER NOT NULL DEFAULT 0,
	remaining_sessions INTEGER NOT NULL DEFAULT 1,
	notes TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE payments (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE RESTRICT,
	customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE RESTRICT,
	appointment_id TEXT NOT NULL REFERENCES appointments(id) ON DELETE RESTRICT,
	total_amount NUMERIC(12,2) NOT NULL,
	paid_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	remaining_amount NUMERIC(12,2) NOT NULL,
	payment_method TEXT NOT NULL,
	status TEXT NOT NULL,
	payment_date TIMESTAMP NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	reference_number TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE payment_installments (
	id TEXT PRIMARY KEY,
	payment_id TEXT NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
	amount NUMERIC(12,2) NOT NULL,
	due_date TIMESTAMP NOT NULL,
	paid_date TIMESTAMP,
	is_paid BOOLEAN NOT NULL DEFAULT 0,
	payment_method TEXT,
	notes TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// NewDB opens a private in-memory database with the schema applied. The pool
// is limited to one connection so every statement sees the same database;
// code running inside a transaction must use the transaction's context.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

// Insert writes entity as is, bypassing tenant scoping.
func Insert(t *testing.T, db *sqlx.DB, entity model.Entity) {
	t.Helper()

	if entity.GetID() == uuid.Nil {
		entity.SetID(uuid.New())
	}
	entity.Touch(Now())

	cols := entity.Columns()
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		entity.TableName(), strings.Join(cols, ", "), strings.Join(cols, ", :"))
	_, err := db.NamedExec(query, entity)
	require.NoError(t, err)
}

// Now is the current time truncated to whole seconds in UTC, which survives
// a round trip through the test database unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func Money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func SuperAdminCtx() context.Context {
	return tenant.NewContext(context.Background(), tenant.System())
}

func TenantCtx(id uuid.UUID) context.Context {
	return tenant.NewContext(context.Background(), tenant.ForTenant(id))
}

// NoTenantCtx is an authenticated employee whose token lacks a tenant claim.
func NoTenantCtx() context.Context {
	return tenant.NewContext(context.Background(), tenant.NewScope(tenant.Identity{
		UserID:        uuid.NewString(),
		Role:          tenant.RoleEmployee,
		Authenticated: true,
	}))
}

func SeedTenant(t *testing.T, db *sqlx.DB, subdomain string) *model.Tenant {
	t.Helper()
	tn := &model.Tenant{
		Name:              strings.ToUpper(subdomain[:1]) + subdomain[1:] + " Salon",
		Subdomain:         subdomain,
		IsActive:          true,
		SubscriptionPlan:  model.PlanBasic,
		SubscriptionStart: Now(),
		MaxUsers:          model.DefaultMaxUsers,
		MaxCustomers:      model.DefaultMaxCustomers,
	}
	Insert(t, db, tn)
	return tn
}

func SeedUser(t *testing.T, db *sqlx.DB, tenantID *uuid.UUID, username string, role tenant.Role) *model.User {
	t.Helper()
	u := &model.User{
		TenantID:     tenantID,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		FirstName:    strings.ToUpper(username[:1]) + username[1:],
		LastName:     "Staff",
		Role:         role,
		IsActive:     true,
	}
	Insert(t, db, u)
	return u
}

func SeedCustomer(t *testing.T, db *sqlx.DB, tenantID uuid.UUID, phone string) *model.Customer {
	t.Helper()
	c := &model.Customer{
		TenantScoped: model.TenantScoped{TenantID: tenantID},
		FirstName:    "Ayla",
		LastName:     "Demir",
		Phone:        phone,
		IsActive:     true,
	}
	Insert(t, db, c)
	return c
}

func SeedServiceType(t *testing.T, db *sqlx.DB, tenantID uuid.UUID, name string, price int64) *model.ServiceType {
	t.Helper()
	s := &model.ServiceType{
		TenantScoped:    model.TenantScoped{TenantID: tenantID},
		Name:            name,
		Price:           Money(price),
		DurationMinutes: 60,
		IsActive:        true,
	}
	Insert(t, db, s)
	return s
}

// Salon is one tenant with a staff member, a customer and a service.
type Salon struct {
	Tenant   *model.Tenant
	User     *model.User
	Customer *model.Customer
	Service  *model.ServiceType
}

func (s *Salon) Ctx() context.Context {
	return TenantCtx(s.Tenant.ID)
}

// SeedSalon creates a tenant named subdomain with its supporting rows.
// phone must be unique across the database.
func SeedSalon(t *testing.T, db *sqlx.DB, subdomain, phone string) *Salon {
	t.Helper()
	tn := SeedTenant(t, db, subdomain)
	return &Salon{
		Tenant:   tn,
		User:     SeedUser(t, db, &tn.ID, subdomain+"-staff", tenant.RoleEmployee),
		Customer: SeedCustomer(t, db, tn.ID, phone),
		Service:  SeedServiceType(t, db, tn.ID, "Laser", 100),
	}
}

// SeedAppointment books the salon's service for its customer at finalPrice.
func SeedAppointment(t *testing.T, db *sqlx.DB, s *Salon, finalPrice int64, status model.AppointmentStatus) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		TenantScoped:      model.TenantScoped{TenantID: s.Tenant.ID},
		CustomerID:        s.Customer.ID,
		ServiceTypeID:     s.Service.ID,
		UserID:            s.User.ID,
		AppointmentDate:   Now(),
		Status:            status,
		TotalPrice:        Money(finalPrice),
		DiscountAmount:    decimal.Zero,
		FinalPrice:        Money(finalPrice),
		TotalSessions:     1,
		RemainingSessions: 1,
	}
	Insert(t, db, a)
	return a
}

// SeedPayment records a payment against a as is, without installments.
func SeedPayment(t *testing.T, db *sqlx.DB, a *model.Appointment, total, paid int64, method string) *model.Payment {
	t.Helper()
	p := &model.Payment{
		TenantScoped:    model.TenantScoped{TenantID: a.TenantID},
		CustomerID:      a.CustomerID,
		AppointmentID:   a.ID,
		TotalAmount:     Money(total),
		PaidAmount:      Money(paid),
		RemainingAmount: Money(total - paid),
		PaymentMethod:   method,
		Status:          model.DeriveStatus(Money(paid), Money(total-paid)),
		PaymentDate:     Now(),
	}
	Insert(t, db, p)
	return p
}

func SeedInstallment(t *testing.T, db *sqlx.DB, p *model.Payment, amount int64, due time.Time) *model.PaymentInstallment {
	t.Helper()
	i := &model.PaymentInstallment{
		PaymentID: p.ID,
		Amount:    Money(amount),
		DueDate:   due,
	}
	Insert(t, db, i)
	return i
}
