package tenant

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/salon-api/internal/handler"
	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/service/tenant"
	"github.com/jwalitptl/salon-api/pkg/httputil"
)

// StatusCache is told when a tenant's status may have changed.
type StatusCache interface {
	Forget(id uuid.UUID)
}

type Handler struct {
	service *tenant.Service
	cache   StatusCache
}

func NewHandler(service *tenant.Service, cache StatusCache) *Handler {
	return &Handler{service: service, cache: cache}
}

// RegisterRoutes mounts the super-admin tenant routes. r must already be
// restricted to super admins.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.PlatformDashboard)

	tenants := r.Group("/tenants")
	{
		tenants.GET("", h.ListTenants)
		tenants.POST("", h.CreateTenant)
		tenants.GET("/:id", h.GetTenant)
		tenants.PUT("/:id", h.UpdateTenant)
		tenants.DELETE("/:id", h.DeleteTenant)
		tenants.GET("/:id/dashboard", h.Dashboard)
	}
}

func (h *Handler) CreateTenant(c *gin.Context) {
	var req model.CreateTenantRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	t, err := h.service.CreateTenant(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, t)
}

func (h *Handler) GetTenant(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "tenant")
	if !ok {
		return
	}

	t, err := h.service.GetTenant(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, t)
}

func (h *Handler) ListTenants(c *gin.Context) {
	tenants, err := h.service.ListTenants(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tenants)
}

func (h *Handler) UpdateTenant(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "tenant")
	if !ok {
		return
	}
	var req model.UpdateTenantRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	t, err := h.service.UpdateTenant(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.cache.Forget(id)
	httputil.RespondWithSuccess(c, t)
}

func (h *Handler) DeleteTenant(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "tenant")
	if !ok {
		return
	}

	if err := h.service.DeleteTenant(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.cache.Forget(id)
	httputil.RespondWithMessage(c, "tenant deleted")
}

func (h *Handler) Dashboard(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "tenant")
	if !ok {
		return
	}

	d, err := h.service.Dashboard(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) PlatformDashboard(c *gin.Context) {
	d, err := h.service.PlatformDashboard(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}
