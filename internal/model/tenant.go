package model

import (
	"time"
)

type SubscriptionPlan string

const (
	PlanBasic      SubscriptionPlan = "basic"
	PlanPremium    SubscriptionPlan = "premium"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

const (
	DefaultMaxUsers     = 5
	DefaultMaxCustomers = 100
)

// Tenant is a salon. Tenants are global rows and are never tenant-filtered.
type Tenant struct {
	Base
	Name              string           `json:"name" db:"name"`
	Subdomain         string           `json:"subdomain" db:"subdomain"`
	Description       string           `json:"description,omitempty" db:"description"`
	ContactEmail      string           `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone      string           `json:"contact_phone,omitempty" db:"contact_phone"`
	Address           string           `json:"address,omitempty" db:"address"`
	IsActive          bool             `json:"is_active" db:"is_active"`
	SubscriptionPlan  SubscriptionPlan `json:"subscription_plan" db:"subscription_plan"`
	SubscriptionStart time.Time        `json:"subscription_start" db:"subscription_start"`
	SubscriptionEnd   *time.Time       `json:"subscription_end,omitempty" db:"subscription_end"`
	MaxUsers          int              `json:"max_users" db:"max_users"`
	MaxCustomers      int              `json:"max_customers" db:"max_customers"`
}

func (*Tenant) TableName() string { return "tenants" }

func (*Tenant) Columns() []string {
	return []string{
		"id", "name", "subdomain", "description", "contact_email", "contact_phone",
		"address", "is_active", "subscription_plan", "subscription_start",
		"subscription_end", "max_users", "max_customers", "created_at", "updated_at",
	}
}

// Serviceable reports whether requests for this tenant may be processed at t.
func (t *Tenant) Serviceable(at time.Time) bool {
	if !t.IsActive {
		return false
	}
	return t.SubscriptionEnd == nil || at.Before(*t.SubscriptionEnd)
}

type CreateTenantRequest struct {
	Name             string           `json:"name" binding:"required" validate:"required,max=100"`
	Subdomain        string           `json:"subdomain" binding:"required" validate:"required,max=50,alphanum"`
	Description      string           `json:"description" validate:"max=500"`
	ContactEmail     string           `json:"contact_email" validate:"omitempty,email"`
	ContactPhone     string           `json:"contact_phone" validate:"max=20"`
	Address          string           `json:"address" validate:"max=500"`
	SubscriptionPlan SubscriptionPlan `json:"subscription_plan" validate:"omitempty,oneof=basic premium enterprise"`
	SubscriptionEnd  *time.Time       `json:"subscription_end"`
	MaxUsers         int              `json:"max_users" validate:"gte=0"`
	MaxCustomers     int              `json:"max_customers" validate:"gte=0"`
}

type UpdateTenantRequest struct {
	Name             *string           `json:"name" validate:"omitempty,max=100"`
	Description      *string           `json:"description" validate:"omitempty,max=500"`
	ContactEmail     *string           `json:"contact_email" validate:"omitempty,email"`
	ContactPhone     *string           `json:"contact_phone" validate:"omitempty,max=20"`
	Address          *string           `json:"address" validate:"omitempty,max=500"`
	IsActive         *bool             `json:"is_active"`
	SubscriptionPlan *SubscriptionPlan `json:"subscription_plan" validate:"omitempty,oneof=basic premium enterprise"`
	SubscriptionEnd  *time.Time        `json:"subscription_end"`
	MaxUsers         *int              `json:"max_users" validate:"omitempty,gte=0"`
	MaxCustomers     *int              `json:"max_customers" validate:"omitempty,gte=0"`
}

// TenantDashboard is the super-admin overview of one tenant.
type TenantDashboard struct {
	Tenant           *Tenant `json:"tenant"`
	UserCount        int     `json:"user_count"`
	CustomerCount    int     `json:"customer_count"`
	AppointmentCount int     `json:"appointment_count"`
}

// PlatformDashboard is the super-admin overview across all tenants.
type PlatformDashboard struct {
	TenantCount       int `json:"tenant_count"`
	ActiveTenantCount int `json:"active_tenant_count"`
	UserCount         int `json:"user_count"`
	CustomerCount     int `json:"customer_count"`
	AppointmentCount  int `json:"appointment_count"`
}
