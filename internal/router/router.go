package router

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-api/internal/handler/appointment"
	"github.com/jwalitptl/salon-api/internal/handler/auth"
	"github.com/jwalitptl/salon-api/internal/handler/customer"
	"github.com/jwalitptl/salon-api/internal/handler/health"
	"github.com/jwalitptl/salon-api/internal/handler/payment"
	"github.com/jwalitptl/salon-api/internal/handler/prometheus"
	"github.com/jwalitptl/salon-api/internal/handler/servicetype"
	"github.com/jwalitptl/salon-api/internal/handler/tenant"
	"github.com/jwalitptl/salon-api/internal/handler/user"
	"github.com/jwalitptl/salon-api/internal/middleware"
	tenantscope "github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/pkg/metrics"
)

type Handlers struct {
	Auth        *auth.Handler
	Payment     *payment.Handler
	Appointment *appointment.Handler
	Customer    *customer.Handler
	ServiceType *servicetype.Handler
	Tenant      *tenant.Handler
	User        *user.Handler
	Health      *health.Handler
	Prometheus  *prometheus.Handler
}

type RouterConfig struct {
	CORSConfig   middleware.CORSConfig
	MaxBodyBytes int64
	HSTS         bool
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
	Metrics     *metrics.Metrics
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	tenants *middleware.TenantMiddleware
	h       Handlers
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	tenants *middleware.TenantMiddleware,
	h Handlers,
	config RouterConfig,
) *Router {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(config.Metrics),
		middleware.Recovery(),
		middleware.SecurityHeaders(config.HSTS),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.MaxBodyBytes),
	)
	if config.RateLimiter != nil {
		engine.Use(config.RateLimiter.RateLimit())
	}

	return &Router{
		engine:  engine,
		auth:    auth,
		tenants: tenants,
		h:       h,
	}
}

// Setup registers every route. Everything under /api/v1 except login needs a
// valid token and a serviceable tenant.
func (r *Router) Setup() {
	r.h.Health.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", r.h.Prometheus.Handler())

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	protected := api.Group("")
	protected.Use(r.auth.Authenticate(), r.tenants.Resolve())

	r.h.Auth.RegisterRoutes(api, protected)
	r.h.Payment.RegisterRoutes(protected)
	r.h.Appointment.RegisterRoutes(protected)
	r.h.Customer.RegisterRoutes(protected)
	r.h.ServiceType.RegisterRoutes(protected)

	staff := protected.Group("")
	staff.Use(middleware.RequireRoles(tenantscope.RoleTenantAdmin))
	r.h.User.RegisterRoutes(staff)

	superAdmin := protected.Group("/super-admin")
	superAdmin.Use(middleware.RequireSuperAdmin())
	r.h.Tenant.RegisterRoutes(superAdmin)
	r.h.User.RegisterRoutes(superAdmin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
