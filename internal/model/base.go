package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (b *Base) GetID() uuid.UUID { return b.ID }

func (b *Base) SetID(id uuid.UUID) { b.ID = id }

// Touch stamps the row as modified at now, and as created if it is new.
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Entity is a row the generic repository can persist.
type Entity interface {
	TableName() string
	// Columns lists every persisted column, matching the struct's db tags.
	Columns() []string
	GetID() uuid.UUID
	SetID(uuid.UUID)
	Touch(time.Time)
}

// TenantOwned is implemented by entities whose rows belong to one tenant.
// uuid.Nil means the tenant is unset.
type TenantOwned interface {
	GetTenantID() uuid.UUID
	SetTenantID(uuid.UUID)
}

// TenantScoped is embedded by entities with a required tenant column.
type TenantScoped struct {
	TenantID uuid.UUID `json:"tenant_id" db:"tenant_id"`
}

func (t *TenantScoped) GetTenantID() uuid.UUID { return t.TenantID }

func (t *TenantScoped) SetTenantID(id uuid.UUID) { t.TenantID = id }

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// DateRange is an inclusive window used by report queries.
type DateRange struct {
	Start time.Time `json:"start_date" form:"start_date" time_format:"2006-01-02"`
	End   time.Time `json:"end_date" form:"end_date" time_format:"2006-01-02"`
}
