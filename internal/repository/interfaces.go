package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
)

var (
	// ErrNotFound is returned when a row is absent or hidden by the tenant filter.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a guarded update matched no row because the
	// row is no longer in the expected state.
	ErrConflict = errors.New("record state changed")
)

// Predicate is an extra condition for Find and CountWhere, written with ?
// placeholders. The tenant filter is always added on top of it.
type Predicate struct {
	Where   string
	Args    []interface{}
	OrderBy string
	Limit   int
}

func Where(cond string, args ...interface{}) Predicate {
	return Predicate{Where: cond, Args: args}
}

func (p Predicate) Order(by string) Predicate {
	p.OrderBy = by
	return p
}

func (p Predicate) Take(n int) Predicate {
	p.Limit = n
	return p
}

// Repository is the tenant-scoped data access every entity gets.
type Repository[T any] interface {
	GetAll(ctx context.Context) ([]*T, error)
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	Find(ctx context.Context, p Predicate) ([]*T, error)
	Add(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context) (int, error)
	CountWhere(ctx context.Context, p Predicate) (int, error)
}

// All repository interfaces in one file
type (
	// Transactor runs fn in one database transaction. Repositories called with
	// the ctx passed to fn take part in it.
	Transactor interface {
		WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	}

	TenantRepository interface {
		Repository[model.Tenant]
		GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error)
	}

	UserRepository interface {
		Repository[model.User]
		// GetByLogin looks up a user by username or email across all tenants.
		GetByLogin(ctx context.Context, login string) (*model.User, error)
		// LoginTaken checks username and email across all tenants.
		LoginTaken(ctx context.Context, username, email string, excludeID uuid.UUID) (bool, error)
		TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	CustomerRepository interface {
		Repository[model.Customer]
		// GetByPhone is not tenant filtered: phone numbers are unique system wide.
		GetByPhone(ctx context.Context, phone string) (*model.Customer, error)
		Search(ctx context.Context, term string) ([]*model.Customer, error)
		ListActive(ctx context.Context) ([]*model.Customer, error)
	}

	ServiceTypeRepository interface {
		Repository[model.ServiceType]
		ListActive(ctx context.Context) ([]*model.ServiceType, error)
		// ListByPriceRange returns the active service types priced in [minPrice, maxPrice].
		ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*model.ServiceType, error)
	}

	AppointmentRepository interface {
		Repository[model.Appointment]
		GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
		ListDetails(ctx context.Context, filters model.AppointmentFilters) ([]*model.AppointmentDetail, error)
		SumFinalPriceByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
		SumFinalPrice(ctx context.Context, p Predicate) (decimal.Decimal, error)
	}

	PaymentRepository interface {
		Repository[model.Payment]
		ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Payment, error)
		ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Payment, error)
		ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Payment, error)
		ListByMethod(ctx context.Context, method string) ([]*model.Payment, error)
		ListRecent(ctx context.Context, limit int) ([]*model.Payment, error)
		// SumPaid sums paid amounts with payment_date in [start, end]; nil bounds are open.
		SumPaid(ctx context.Context, start, end *time.Time) (decimal.Decimal, error)
		SumPaidByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
		Totals(ctx context.Context) (*model.PaymentTotals, error)
		CountByStatus(ctx context.Context) (map[model.PaymentStatus]int, error)
		PendingAppointments(ctx context.Context) ([]*model.PendingAppointment, error)
		// ApplyPayment moves up to amount from remaining to paid in a single
		// statement. method replaces the payment method when not nil and note
		// is appended to the description when not empty.
		ApplyPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method *string, note string, at time.Time) error
		UpdateDetails(ctx context.Context, id uuid.UUID, req *model.UpdatePaymentRequest, at time.Time) error
	}

	InstallmentRepository interface {
		AddBatch(ctx context.Context, installments []*model.PaymentInstallment) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentInstallment, error)
		ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*model.PaymentInstallment, error)
		ListByPayments(ctx context.Context, paymentIDs []uuid.UUID) (map[uuid.UUID][]*model.PaymentInstallment, error)
		// MarkPaid returns ErrConflict when the installment is already paid.
		MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, method string, notes *string) error
		ListUpcoming(ctx context.Context, from, to time.Time) ([]*model.PaymentInstallment, error)
		ListOverdue(ctx context.Context, asOf time.Time) ([]*model.OverdueInstallment, error)
		DeleteByPayment(ctx context.Context, paymentID uuid.UUID) error
	}
)
