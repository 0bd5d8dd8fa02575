package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	Base
	TenantScoped
	FirstName   string     `json:"first_name" db:"first_name"`
	LastName    string     `json:"last_name" db:"last_name"`
	Phone       string     `json:"phone" db:"phone"`
	Email       *string    `json:"email,omitempty" db:"email"`
	Address     *string    `json:"address,omitempty" db:"address"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender      *string    `json:"gender,omitempty" db:"gender"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	IsActive    bool       `json:"is_active" db:"is_active"`
}

func (*Customer) TableName() string { return "customers" }

func (*Customer) Columns() []string {
	return []string{
		"id", "tenant_id", "first_name", "last_name", "phone", "email", "address",
		"date_of_birth", "gender", "notes", "is_active", "created_at", "updated_at",
	}
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// CustomerDetails is a customer with their appointment history and ledger.
type CustomerDetails struct {
	*Customer
	Appointments     []*AppointmentDetail `json:"appointments"`
	Payments         []*Payment           `json:"payments"`
	TotalPaid        decimal.Decimal      `json:"total_paid"`
	RemainingBalance decimal.Decimal      `json:"remaining_balance"`
}

// TenantID is only honoured for super admins.
type CreateCustomerRequest struct {
	TenantID    *uuid.UUID `json:"tenant_id"`
	FirstName   string     `json:"first_name" binding:"required" validate:"required,max=50"`
	LastName    string     `json:"last_name" binding:"required" validate:"required,max=50"`
	Phone       string     `json:"phone" binding:"required" validate:"required,max=20"`
	Email       *string    `json:"email" validate:"omitempty,email"`
	Address     *string    `json:"address" validate:"omitempty,max=500"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender" validate:"omitempty,max=10"`
	Notes       *string    `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateCustomerRequest struct {
	FirstName   *string    `json:"first_name" validate:"omitempty,max=50"`
	LastName    *string    `json:"last_name" validate:"omitempty,max=50"`
	Phone       *string    `json:"phone" validate:"omitempty,max=20"`
	Email       *string    `json:"email" validate:"omitempty,email"`
	Address     *string    `json:"address" validate:"omitempty,max=500"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender" validate:"omitempty,max=10"`
	Notes       *string    `json:"notes" validate:"omitempty,max=1000"`
	IsActive    *bool      `json:"is_active"`
}
