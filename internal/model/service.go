package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceType is an entry in a salon's service catalog.
type ServiceType struct {
	Base
	TenantScoped
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description"`
	Price           decimal.Decimal `db:"price" json:"price"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	ImageURL        *string         `db:"image_url" json:"image_url,omitempty"`
	IsActive        bool            `db:"is_active" json:"is_active"`
}

func (*ServiceType) TableName() string { return "service_types" }

func (*ServiceType) Columns() []string {
	return []string{
		"id", "tenant_id", "name", "description", "price", "duration_minutes",
		"image_url", "is_active", "created_at", "updated_at",
	}
}

type CreateServiceTypeRequest struct {
	TenantID        *uuid.UUID      `json:"tenant_id"`
	Name            string          `json:"name" binding:"required" validate:"required,max=100"`
	Description     string          `json:"description" validate:"max=500"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes" validate:"gte=0"`
	ImageURL        *string         `json:"image_url" validate:"omitempty,url"`
}

type UpdateServiceTypeRequest struct {
	Name            *string          `json:"name" validate:"omitempty,max=100"`
	Description     *string          `json:"description" validate:"omitempty,max=500"`
	Price           *decimal.Decimal `json:"price"`
	DurationMinutes *int             `json:"duration_minutes" validate:"omitempty,gte=0"`
	ImageURL        *string          `json:"image_url" validate:"omitempty,url"`
	IsActive        *bool            `json:"is_active"`
}
