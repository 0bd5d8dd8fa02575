// Package tenant resolves which salon a request acts for.
package tenant

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSuperAdmin  Role = "SuperAdmin"
	RoleTenantAdmin Role = "TenantAdmin"
	RoleEmployee    Role = "Employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleEmployee:
		return true
	}
	return false
}

// Identity is what the authentication layer knows about the caller.
type Identity struct {
	UserID        string
	Role          Role
	TenantClaim   string
	Authenticated bool
}

// RequiresTenant reports whether the identity must carry a tenant claim to
// be let through.
func (i Identity) RequiresTenant() bool {
	return i.Authenticated && i.Role != RoleSuperAdmin
}

// Scope is the per-request tenant resolution. It is created once per request
// and must not be shared between requests.
type Scope struct {
	identity Identity

	once     sync.Once
	tenantID uuid.UUID
	resolved bool

	mu       sync.RWMutex
	override *uuid.UUID
}

func NewScope(identity Identity) *Scope {
	return &Scope{identity: identity}
}

// Anonymous returns a scope that resolves no tenant and is not a super admin.
func Anonymous() *Scope {
	return &Scope{}
}

// System returns a super-admin scope for internal callers such as migrations
// and seeders.
func System() *Scope {
	return NewScope(Identity{Role: RoleSuperAdmin, Authenticated: true})
}

// ForTenant returns an authenticated tenant-admin scope bound to id.
func ForTenant(id uuid.UUID) *Scope {
	return NewScope(Identity{Role: RoleTenantAdmin, TenantClaim: id.String(), Authenticated: true})
}

func (s *Scope) Identity() Identity {
	return s.identity
}

// CurrentTenantID returns the tenant the request acts for. ok is false when
// the caller is unauthenticated or carries no parseable tenant claim.
func (s *Scope) CurrentTenantID() (uuid.UUID, bool) {
	s.mu.RLock()
	override := s.override
	s.mu.RUnlock()
	if override != nil {
		return *override, true
	}

	s.once.Do(func() {
		if !s.identity.Authenticated || s.identity.TenantClaim == "" {
			return
		}
		id, err := uuid.Parse(s.identity.TenantClaim)
		if err != nil || id == uuid.Nil {
			return
		}
		s.tenantID = id
		s.resolved = true
	})
	return s.tenantID, s.resolved
}

func (s *Scope) IsSuperAdmin() bool {
	return s.identity.Authenticated && s.identity.Role == RoleSuperAdmin
}

// HasTenantAccess reports whether the caller may act on rows of tenant id.
func (s *Scope) HasTenantAccess(id uuid.UUID) bool {
	if s.IsSuperAdmin() {
		return true
	}
	current, ok := s.CurrentTenantID()
	return ok && current == id
}

// Pinned returns the tenant set with SetTenantID, if any.
func (s *Scope) Pinned() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.override == nil {
		return uuid.Nil, false
	}
	return *s.override, true
}

// SetTenantID pins the tenant for the rest of the request. A pinned super
// admin reads and writes as that tenant.
func (s *Scope) SetTenantID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = &id
}

var (
	ErrNoTenant      = errors.New("no tenant in scope")
	ErrForeignTenant = errors.New("tenant outside caller scope")
)

// TargetTenant returns the tenant a new row should belong to. Super admins
// name it or fall back to their pinned tenant; everyone else writes into
// their own tenant and may only name that one.
func (s *Scope) TargetTenant(requested *uuid.UUID) (uuid.UUID, error) {
	if s.IsSuperAdmin() {
		if requested != nil && *requested != uuid.Nil {
			return *requested, nil
		}
		if pinned, ok := s.Pinned(); ok {
			return pinned, nil
		}
		return uuid.Nil, ErrNoTenant
	}
	current, ok := s.CurrentTenantID()
	if !ok {
		return uuid.Nil, ErrNoTenant
	}
	if requested != nil && *requested != uuid.Nil && *requested != current {
		return uuid.Nil, ErrForeignTenant
	}
	return current, nil
}

type scopeKey struct{}

func NewContext(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the scope stored in ctx, or an anonymous scope.
func FromContext(ctx context.Context) *Scope {
	if s, ok := ctx.Value(scopeKey{}).(*Scope); ok && s != nil {
		return s
	}
	return Anonymous()
}
