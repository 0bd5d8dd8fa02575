package customer

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-api/internal/handler"
	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/service/customer"
	"github.com/jwalitptl/salon-api/pkg/httputil"
)

type Handler struct {
	service *customer.Service
}

func NewHandler(service *customer.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	customers := r.Group("/customers")
	{
		customers.GET("", h.ListCustomers)
		customers.POST("", h.CreateCustomer)
		customers.GET("/active", h.ListActiveCustomers)
		customers.GET("/:id", h.GetCustomer)
		customers.GET("/:id/details", h.GetCustomerDetails)
		customers.PUT("/:id", h.UpdateCustomer)
		customers.DELETE("/:id", h.DeleteCustomer)
	}
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var req model.CreateCustomerRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	cust, err := h.service.CreateCustomer(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, cust)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "customer")
	if !ok {
		return
	}

	cust, err := h.service.GetCustomer(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cust)
}

// ListCustomers filters by name, phone or email when ?search is given.
func (h *Handler) ListCustomers(c *gin.Context) {
	customers, err := h.service.ListCustomers(c.Request.Context(), c.Query("search"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, customers)
}

func (h *Handler) ListActiveCustomers(c *gin.Context) {
	customers, err := h.service.ListActiveCustomers(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, customers)
}

func (h *Handler) GetCustomerDetails(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "customer")
	if !ok {
		return
	}

	details, err := h.service.GetCustomerDetails(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, details)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "customer")
	if !ok {
		return
	}
	var req model.UpdateCustomerRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	cust, err := h.service.UpdateCustomer(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cust)
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "customer")
	if !ok {
		return
	}

	if err := h.service.DeleteCustomer(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "customer deleted")
}
