package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxMoney is the largest amount a NUMERIC(12,2) column holds.
var MaxMoney = decimal.RequireFromString("9999999999.99")

// IsMoney reports whether d is stored by a NUMERIC(12,2) column unchanged:
// at most two decimal places and within range.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(2)) && d.Abs().LessThanOrEqual(MaxMoney)
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// DeriveStatus returns the status implied by the balances.
func DeriveStatus(paid, remaining decimal.Decimal) PaymentStatus {
	switch {
	case !remaining.IsPositive():
		return PaymentStatusCompleted
	case paid.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusPending
	}
}

type Payment struct {
	Base
	TenantScoped
	CustomerID      uuid.UUID       `db:"customer_id" json:"customer_id"`
	AppointmentID   uuid.UUID       `db:"appointment_id" json:"appointment_id"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaidAmount      decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	RemainingAmount decimal.Decimal `db:"remaining_amount" json:"remaining_amount"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	Status          PaymentStatus   `db:"status" json:"status"`
	PaymentDate     time.Time       `db:"payment_date" json:"payment_date"`
	Description     string          `db:"description" json:"description,omitempty"`
	ReferenceNumber *string         `db:"reference_number" json:"reference_number,omitempty"`

	Installments []*PaymentInstallment `db:"-" json:"installments"`
}

func (*Payment) TableName() string { return "payments" }

func (*Payment) Columns() []string {
	return []string{
		"id", "tenant_id", "customer_id", "appointment_id", "total_amount", "paid_amount",
		"remaining_amount", "payment_method", "status", "payment_date", "description",
		"reference_number", "created_at", "updated_at",
	}
}

// Balanced reports whether paid and remaining add up to the total and
// the remaining amount is not negative.
func (p *Payment) Balanced() bool {
	return p.PaidAmount.Add(p.RemainingAmount).Equal(p.TotalAmount) && !p.RemainingAmount.IsNegative()
}

// PaymentInstallment has no tenant column; it is scoped through its payment.
type PaymentInstallment struct {
	Base
	PaymentID     uuid.UUID       `db:"payment_id" json:"payment_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	DueDate       time.Time       `db:"due_date" json:"due_date"`
	PaidDate      *time.Time      `db:"paid_date" json:"paid_date,omitempty"`
	IsPaid        bool            `db:"is_paid" json:"is_paid"`
	PaymentMethod *string         `db:"payment_method" json:"payment_method,omitempty"`
	Notes         *string         `db:"notes" json:"notes,omitempty"`
}

func (*PaymentInstallment) TableName() string { return "payment_installments" }

func (*PaymentInstallment) Columns() []string {
	return []string{
		"id", "payment_id", "amount", "due_date", "paid_date", "is_paid",
		"payment_method", "notes", "created_at", "updated_at",
	}
}

// OverdueInstallment is an unpaid installment past its due date.
type OverdueInstallment struct {
	PaymentInstallment
	CustomerID    uuid.UUID `db:"customer_id" json:"customer_id"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	CustomerPhone string    `db:"customer_phone" json:"customer_phone"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	DaysOverdue   int       `db:"-" json:"days_overdue"`
}

// PendingAppointment is an open appointment that still has money to collect.
type PendingAppointment struct {
	AppointmentID   uuid.UUID         `db:"appointment_id" json:"appointment_id"`
	CustomerID      uuid.UUID         `db:"customer_id" json:"customer_id"`
	CustomerName    string            `db:"customer_name" json:"customer_name"`
	ServiceTypeName string            `db:"service_type_name" json:"service_type_name"`
	AppointmentDate time.Time         `db:"appointment_date" json:"appointment_date"`
	Status          AppointmentStatus `db:"status" json:"status"`
	FinalPrice      decimal.Decimal   `db:"final_price" json:"final_price"`
	PaidAmount      decimal.Decimal   `db:"paid_amount" json:"paid_amount"`
	RemainingAmount decimal.Decimal   `db:"remaining_amount" json:"remaining_amount"`
}

type PaymentTotals struct {
	TotalRevenue   decimal.Decimal `db:"total_revenue" json:"total_revenue"`
	TotalPaid      decimal.Decimal `db:"total_paid" json:"total_paid"`
	TotalRemaining decimal.Decimal `db:"total_remaining" json:"total_remaining"`
}

type PaymentSummary struct {
	PaymentTotals
	TotalPayments        int                   `json:"total_payments"`
	PendingPayments      int                   `json:"pending_payments"`
	PartialPayments      int                   `json:"partial_payments"`
	CompletedPayments    int                   `json:"completed_payments"`
	RecentPayments       []*Payment            `json:"recent_payments"`
	UpcomingInstallments []*PaymentInstallment `json:"upcoming_installments"`
}

type CustomerPaymentTotals struct {
	CustomerID       uuid.UUID       `json:"customer_id"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type CreateInstallmentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date" binding:"required"`
	Notes   *string         `json:"notes" validate:"omitempty,max=500"`
}

type CreatePaymentRequest struct {
	CustomerID       uuid.UUID                   `json:"customer_id"`
	AppointmentID    uuid.UUID                   `json:"appointment_id" binding:"required"`
	TotalAmount      decimal.Decimal             `json:"total_amount"`
	InitialPayment   decimal.Decimal             `json:"initial_payment"`
	PaymentMethod    string                      `json:"payment_method" binding:"required" validate:"required,max=50"`
	PaymentDate      time.Time                   `json:"payment_date"`
	Description      string                      `json:"description" validate:"max=500"`
	ReferenceNumber  *string                     `json:"reference_number" validate:"omitempty,max=100"`
	InstallmentCount *int                        `json:"installment_count" validate:"omitempty,gte=0,lte=60"`
	Installments     []*CreateInstallmentRequest `json:"installments" validate:"omitempty,dive"`
}

type AddPaymentRequest struct {
	Amount        decimal.Decimal `json:"payment_amount"`
	PaymentMethod string          `json:"payment_method" binding:"required" validate:"required,max=50"`
	Description   string          `json:"description" validate:"max=500"`
}

type PayInstallmentRequest struct {
	PaymentMethod string  `json:"payment_method" binding:"required" validate:"required,max=50"`
	Notes         *string `json:"notes" validate:"omitempty,max=500"`
}

// UpdatePaymentRequest only touches descriptive fields; balances move through
// the ledger operations.
type UpdatePaymentRequest struct {
	PaymentMethod   *string `json:"payment_method" validate:"omitempty,max=50"`
	Description     *string `json:"description" validate:"omitempty,max=500"`
	ReferenceNumber *string `json:"reference_number" validate:"omitempty,max=100"`
}
