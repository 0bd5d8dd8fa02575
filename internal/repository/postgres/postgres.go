package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
)

type tenantRepository struct {
	*Scoped[model.Tenant, *model.Tenant]
}

type userRepository struct {
	*Scoped[model.User, *model.User]
}

type customerRepository struct {
	*Scoped[model.Customer, *model.Customer]
}

type serviceTypeRepository struct {
	*Scoped[model.ServiceType, *model.ServiceType]
}

type appointmentRepository struct {
	*Scoped[model.Appointment, *model.Appointment]
}

type paymentRepository struct {
	*Scoped[model.Payment, *model.Payment]
}

type installmentRepository struct {
	BaseRepository
}

func NewTenantRepository(db *sqlx.DB) repository.TenantRepository {
	return &tenantRepository{NewScoped[model.Tenant](db)}
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewScoped[model.User](db)}
}

func NewCustomerRepository(db *sqlx.DB) repository.CustomerRepository {
	return &customerRepository{NewScoped[model.Customer](db)}
}

func NewServiceTypeRepository(db *sqlx.DB) repository.ServiceTypeRepository {
	return &serviceTypeRepository{NewScoped[model.ServiceType](db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewScoped[model.Appointment](db)}
}

func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &paymentRepository{NewScoped[model.Payment](db)}
}

func NewInstallmentRepository(db *sqlx.DB) repository.InstallmentRepository {
	return &installmentRepository{NewBaseRepository(db)}
}
