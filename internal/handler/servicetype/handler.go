package servicetype

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/handler"
	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/service/catalog"
	"github.com/jwalitptl/salon-api/pkg/httputil"
)

type Handler struct {
	service *catalog.Service
}

func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	types := r.Group("/service-types")
	{
		types.GET("", h.ListServiceTypes)
		types.POST("", h.CreateServiceType)
		types.GET("/price-range", h.ListByPriceRange)
		types.GET("/:id", h.GetServiceType)
		types.PUT("/:id", h.UpdateServiceType)
		types.DELETE("/:id", h.DeleteServiceType)
	}
}

func (h *Handler) CreateServiceType(c *gin.Context) {
	var req model.CreateServiceTypeRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	st, err := h.service.CreateServiceType(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, st)
}

func (h *Handler) GetServiceType(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "service type")
	if !ok {
		return
	}

	st, err := h.service.GetServiceType(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, st)
}

// ListServiceTypes lists every service type, or only the active ones with
// ?active=true.
func (h *Handler) ListServiceTypes(c *gin.Context) {
	var activeOnly bool
	if raw := c.Query("active"); raw != "" {
		var err error
		if activeOnly, err = strconv.ParseBool(raw); err != nil {
			httputil.RespondWithStatus(c, http.StatusBadRequest, "invalid active flag")
			return
		}
	}

	types, err := h.service.ListServiceTypes(c.Request.Context(), activeOnly)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, types)
}

func queryPrice(c *gin.Context, key string) (decimal.Decimal, bool) {
	price, err := decimal.NewFromString(c.Query(key))
	if err != nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, "invalid "+key)
		return decimal.Zero, false
	}
	return price, true
}

func (h *Handler) ListByPriceRange(c *gin.Context) {
	minPrice, ok := queryPrice(c, "min_price")
	if !ok {
		return
	}
	maxPrice, ok := queryPrice(c, "max_price")
	if !ok {
		return
	}

	types, err := h.service.ListByPriceRange(c.Request.Context(), minPrice, maxPrice)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, types)
}

func (h *Handler) UpdateServiceType(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "service type")
	if !ok {
		return
	}
	var req model.UpdateServiceTypeRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	st, err := h.service.UpdateServiceType(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, st)
}

func (h *Handler) DeleteServiceType(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "service type")
	if !ok {
		return
	}

	if err := h.service.DeleteServiceType(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "service type deleted")
}
