package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Open reports whether the appointment can still collect payments.
func (s AppointmentStatus) Open() bool {
	return s != AppointmentStatusCancelled && s != AppointmentStatusCompleted
}

type Appointment struct {
	Base
	TenantScoped
	CustomerID        uuid.UUID         `db:"customer_id" json:"customer_id"`
	ServiceTypeID     uuid.UUID         `db:"service_type_id" json:"service_type_id"`
	UserID            uuid.UUID         `db:"user_id" json:"user_id"`
	AppointmentDate   time.Time         `db:"appointment_date" json:"appointment_date"`
	Status            AppointmentStatus `db:"status" json:"status"`
	TotalPrice        decimal.Decimal   `db:"total_price" json:"total_price"`
	DiscountAmount    decimal.Decimal   `db:"discount_amount" json:"discount_amount"`
	FinalPrice        decimal.Decimal   `db:"final_price" json:"final_price"`
	TotalSessions     int               `db:"total_sessions" json:"total_sessions"`
	CompletedSessions int               `db:"completed_sessions" json:"completed_sessions"`
	RemainingSessions int               `db:"remaining_sessions" json:"remaining_sessions"`
	Notes             *string           `db:"notes" json:"notes,omitempty"`
}

func (*Appointment) TableName() string { return "appointments" }

func (*Appointment) Columns() []string {
	return []string{
		"id", "tenant_id", "customer_id", "service_type_id", "user_id", "appointment_date",
		"status", "total_price", "discount_amount", "final_price", "total_sessions",
		"completed_sessions", "remaining_sessions", "notes", "created_at", "updated_at",
	}
}

// Reprice recomputes the derived price and session fields.
func (a *Appointment) Reprice() {
	a.FinalPrice = a.TotalPrice.Sub(a.DiscountAmount)
	if a.FinalPrice.IsNegative() {
		a.FinalPrice = decimal.Zero
	}
	a.RemainingSessions = a.TotalSessions - a.CompletedSessions
	if a.RemainingSessions < 0 {
		a.RemainingSessions = 0
	}
}

// AppointmentDetail is an appointment joined with the names of its customer,
// service and staff member.
type AppointmentDetail struct {
	Appointment
	CustomerName    string `db:"customer_name" json:"customer_name"`
	CustomerPhone   string `db:"customer_phone" json:"customer_phone"`
	ServiceTypeName string `db:"service_type_name" json:"service_type_name"`
	UserName        string `db:"user_name" json:"user_name"`
}

type AppointmentFilters struct {
	CustomerID    *uuid.UUID         `form:"customer_id"`
	UserID        *uuid.UUID         `form:"user_id"`
	ServiceTypeID *uuid.UUID         `form:"service_type_id"`
	Status        *AppointmentStatus `form:"status"`
	From          *time.Time         `form:"from" time_format:"2006-01-02"`
	To            *time.Time         `form:"to" time_format:"2006-01-02"`
	// Ascending lists the earliest appointment first; the default is newest first.
	Ascending bool `form:"-"`
}

// Revenue is the final price of the appointments completed in a period.
type Revenue struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
}

type CreateAppointmentRequest struct {
	CustomerID      uuid.UUID       `json:"customer_id" binding:"required"`
	ServiceTypeID   uuid.UUID       `json:"service_type_id" binding:"required"`
	UserID          uuid.UUID       `json:"user_id" binding:"required"`
	AppointmentDate time.Time       `json:"appointment_date" binding:"required"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalSessions   int             `json:"total_sessions" validate:"gte=0"`
	Notes           *string         `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateAppointmentRequest struct {
	AppointmentDate   *time.Time         `json:"appointment_date"`
	Status            *AppointmentStatus `json:"status"`
	DiscountAmount    *decimal.Decimal   `json:"discount_amount"`
	TotalSessions     *int               `json:"total_sessions" validate:"omitempty,gte=0"`
	CompletedSessions *int               `json:"completed_sessions" validate:"omitempty,gte=0"`
	UserID            *uuid.UUID         `json:"user_id"`
	Notes             *string            `json:"notes" validate:"omitempty,max=1000"`
}
