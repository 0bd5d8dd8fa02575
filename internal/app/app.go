// Package app wires repositories, services, handlers and middleware into a
// router.
package app

import (
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/salon-api/internal/config"
	appointmenth "github.com/jwalitptl/salon-api/internal/handler/appointment"
	authh "github.com/jwalitptl/salon-api/internal/handler/auth"
	customerh "github.com/jwalitptl/salon-api/internal/handler/customer"
	"github.com/jwalitptl/salon-api/internal/handler/health"
	paymenth "github.com/jwalitptl/salon-api/internal/handler/payment"
	promh "github.com/jwalitptl/salon-api/internal/handler/prometheus"
	"github.com/jwalitptl/salon-api/internal/handler/servicetype"
	tenanth "github.com/jwalitptl/salon-api/internal/handler/tenant"
	userh "github.com/jwalitptl/salon-api/internal/handler/user"
	"github.com/jwalitptl/salon-api/internal/middleware"
	"github.com/jwalitptl/salon-api/internal/repository/postgres"
	"github.com/jwalitptl/salon-api/internal/router"
	"github.com/jwalitptl/salon-api/internal/service/appointment"
	authsvc "github.com/jwalitptl/salon-api/internal/service/auth"
	"github.com/jwalitptl/salon-api/internal/service/catalog"
	"github.com/jwalitptl/salon-api/internal/service/customer"
	"github.com/jwalitptl/salon-api/internal/service/payment"
	tenantsvc "github.com/jwalitptl/salon-api/internal/service/tenant"
	"github.com/jwalitptl/salon-api/internal/service/user"
	"github.com/jwalitptl/salon-api/pkg/auth"
	"github.com/jwalitptl/salon-api/pkg/messaging"
	"github.com/jwalitptl/salon-api/pkg/metrics"
	"github.com/jwalitptl/salon-api/pkg/security"
)

type Options struct {
	// Publisher receives ledger events; nil discards them.
	Publisher messaging.Publisher
	// ReadinessChecks are pinged by /health/ready besides the database.
	ReadinessChecks map[string]health.Pinger
	// BcryptCost overrides the default hashing cost.
	BcryptCost int
}

// New builds the HTTP router for cfg on top of db.
func New(cfg *config.Config, db *sqlx.DB, opts Options) *router.Router {
	prom := promh.New()
	m := metrics.NewMetrics(cfg.Metrics.Namespace, prom.Registry())

	tx := postgres.NewTransactor(db)
	tenants := postgres.NewTenantRepository(db)
	users := postgres.NewUserRepository(db)
	customers := postgres.NewCustomerRepository(db)
	serviceTypes := postgres.NewServiceTypeRepository(db)
	appointments := postgres.NewAppointmentRepository(db)
	payments := postgres.NewPaymentRepository(db)
	installments := postgres.NewInstallmentRepository(db)

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hasher := security.NewBcryptHasher(cost)
	jwt := auth.NewJWTService(auth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
	})

	paymentSvc := payment.NewService(
		payment.Config{
			UpcomingWindow: time.Duration(cfg.Ledger.UpcomingWindowDays) * 24 * time.Hour,
			RecentLimit:    cfg.Ledger.RecentLimit,
		},
		tx, payments, installments, appointments, opts.Publisher, m,
	)
	appointmentSvc := appointment.NewService(tx, appointments, customers, serviceTypes, users, payments)
	customerSvc := customer.NewService(tx, customers, tenants, appointments, payments)
	catalogSvc := catalog.NewService(tx, serviceTypes, appointments)
	tenantSvc := tenantsvc.NewService(tx, tenants, users, customers, appointments)
	userSvc := user.NewService(tx, users, tenants, appointments, hasher)
	authSvc := authsvc.NewService(users, tenants, hasher, jwt)

	tenantCfg := middleware.DefaultTenantConfig()
	if cfg.Tenant.CacheTTL > 0 {
		tenantCfg.CacheTTL = cfg.Tenant.CacheTTL
	}
	tenantMiddleware := middleware.NewTenantMiddleware(tenants, tenantCfg, m)

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		})
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(jwt),
		tenantMiddleware,
		router.Handlers{
			Auth:        authh.NewHandler(authSvc, userSvc),
			Payment:     paymenth.NewHandler(paymentSvc),
			Appointment: appointmenth.NewHandler(appointmentSvc),
			Customer:    customerh.NewHandler(customerSvc),
			ServiceType: servicetype.NewHandler(catalogSvc),
			Tenant:      tenanth.NewHandler(tenantSvc, tenantMiddleware),
			User:        userh.NewHandler(userSvc),
			Health:      health.NewHandler(db, opts.ReadinessChecks),
			Prometheus:  prom,
		},
		router.RouterConfig{
			CORSConfig:   corsCfg,
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
			HSTS:         cfg.Server.HSTS,
			RateLimiter:  limiter,
			Metrics:      m,
		},
	)
	r.Setup()
	return r
}
