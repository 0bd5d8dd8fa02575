package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-api/internal/tenant"
)

// User represents a staff member or a platform super admin.
// A super admin has no tenant; everyone else belongs to exactly one.
type User struct {
	Base
	TenantID     *uuid.UUID  `json:"tenant_id,omitempty" db:"tenant_id"`
	Username     string      `json:"username" db:"username"`
	Email        string      `json:"email" db:"email"`
	Password     string      `json:"password,omitempty" db:"-"`
	PasswordHash string      `json:"-" db:"password_hash"`
	FirstName    string      `json:"first_name" db:"first_name"`
	LastName     string      `json:"last_name" db:"last_name"`
	Phone        *string     `json:"phone,omitempty" db:"phone"`
	Role         tenant.Role `json:"role" db:"role"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time  `json:"last_login_at,omitempty" db:"last_login_at"`
}

func (*User) TableName() string { return "users" }

func (*User) Columns() []string {
	return []string{
		"id", "tenant_id", "username", "email", "password_hash", "first_name",
		"last_name", "phone", "role", "is_active", "last_login_at", "created_at", "updated_at",
	}
}

func (u *User) GetTenantID() uuid.UUID {
	if u.TenantID == nil {
		return uuid.Nil
	}
	return *u.TenantID
}

// SetTenantID leaves super admins without a tenant.
func (u *User) SetTenantID(id uuid.UUID) {
	if id == uuid.Nil || u.Role == tenant.RoleSuperAdmin {
		u.TenantID = nil
		return
	}
	u.TenantID = &id
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type CreateUserRequest struct {
	TenantID  *uuid.UUID  `json:"tenant_id"`
	Username  string      `json:"username" binding:"required" validate:"required,max=50"`
	Email     string      `json:"email" binding:"required,email" validate:"required,email"`
	Password  string      `json:"password" binding:"required,min=8" validate:"required,min=8"`
	FirstName string      `json:"first_name" binding:"required" validate:"required,max=50"`
	LastName  string      `json:"last_name" binding:"required" validate:"required,max=50"`
	Phone     *string     `json:"phone" validate:"omitempty,max=20"`
	Role      tenant.Role `json:"role" binding:"required" validate:"required,oneof=SuperAdmin TenantAdmin Employee"`
}

// RegisterRequest is a CreateUserRequest whose role defaults to Employee.
type RegisterRequest struct {
	TenantID  *uuid.UUID  `json:"tenant_id"`
	Username  string      `json:"username" binding:"required"`
	Email     string      `json:"email" binding:"required,email"`
	Password  string      `json:"password" binding:"required,min=8"`
	FirstName string      `json:"first_name" binding:"required"`
	LastName  string      `json:"last_name" binding:"required"`
	Phone     *string     `json:"phone"`
	Role      tenant.Role `json:"role"`
}

func (r *RegisterRequest) CreateUserRequest() *CreateUserRequest {
	role := r.Role
	if role == "" {
		role = tenant.RoleEmployee
	}
	return &CreateUserRequest{
		TenantID:  r.TenantID,
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Role:      role,
	}
}

type UpdateUserRequest struct {
	FirstName *string      `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string      `json:"last_name" validate:"omitempty,max=50"`
	Email     *string      `json:"email" validate:"omitempty,email"`
	Phone     *string      `json:"phone" validate:"omitempty,max=20"`
	Role      *tenant.Role `json:"role" validate:"omitempty,oneof=SuperAdmin TenantAdmin Employee"`
	IsActive  *bool        `json:"is_active"`
	Password  *string      `json:"password" validate:"omitempty,min=8"`
}
