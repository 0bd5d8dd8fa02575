package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/pkg/httputil"
	"github.com/jwalitptl/salon-api/pkg/metrics"
)

// HeaderTenantID lets a super admin act inside one tenant.
const HeaderTenantID = "X-Tenant-ID"

type TenantConfig struct {
	CacheTTL        time.Duration
	CleanupInterval time.Duration
}

func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		CacheTTL:        time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

type TenantMiddleware struct {
	tenants repository.TenantRepository
	cache   *cache.Cache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewTenantMiddleware(tenants repository.TenantRepository, cfg TenantConfig, m *metrics.Metrics) *TenantMiddleware {
	return &TenantMiddleware{
		tenants: tenants,
		cache:   cache.New(cfg.CacheTTL, cfg.CleanupInterval),
		metrics: m,
		now:     time.Now,
	}
}

func (m *TenantMiddleware) lookupFailed(c *gin.Context, id uuid.UUID, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		m.reject(c, "unknown_tenant", "tenant not found")
		return
	}
	log.Error().Err(err).Str("tenant_id", id.String()).Msg("tenant lookup failed")
	httputil.RespondWithStatus(c, http.StatusInternalServerError, "Internal server error")
}

// Resolve rejects tenant users whose token carries no tenant or whose tenant
// is inactive. Super admins may pin a tenant with the X-Tenant-ID header;
// an unknown tenant is rejected.
func (m *TenantMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := tenant.FromContext(c.Request.Context())

		if scope.IsSuperAdmin() {
			if raw := c.GetHeader(HeaderTenantID); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					httputil.RespondWithStatus(c, http.StatusBadRequest, "invalid tenant id header")
					return
				}
				if _, err := m.lookup(c.Request.Context(), id); err != nil {
					m.lookupFailed(c, id, err)
					return
				}
				scope.SetTenantID(id)
			}
			c.Next()
			return
		}

		if !scope.Identity().RequiresTenant() {
			c.Next()
			return
		}

		id, ok := scope.CurrentTenantID()
		if !ok {
			m.reject(c, "missing_tenant", "tenant context required")
			return
		}

		t, err := m.lookup(c.Request.Context(), id)
		if err != nil {
			m.lookupFailed(c, id, err)
			return
		}
		if !t.Serviceable(m.now()) {
			m.reject(c, "inactive_tenant", "tenant is inactive or its subscription has ended")
			return
		}
		c.Next()
	}
}

func (m *TenantMiddleware) lookup(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	key := id.String()
	if cached, found := m.cache.Get(key); found {
		return cached.(*model.Tenant), nil
	}
	t, err := m.tenants.GetByID(tenant.NewContext(ctx, tenant.System()), id)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, t, cache.DefaultExpiration)
	return t, nil
}

// Forget drops a cached tenant so the next request sees its current status.
func (m *TenantMiddleware) Forget(id uuid.UUID) {
	m.cache.Delete(id.String())
}

func (m *TenantMiddleware) reject(c *gin.Context, reason, message string) {
	m.metrics.RejectTenant(reason)
	log.Warn().
		Str("reason", reason).
		Str("user_id", tenant.FromContext(c.Request.Context()).Identity().UserID).
		Str("path", c.Request.URL.Path).
		Msg("tenant rejected")
	httputil.RespondWithStatus(c, http.StatusForbidden, message)
}
