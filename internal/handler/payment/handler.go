package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/handler"
	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/service/payment"
	"github.com/jwalitptl/salon-api/pkg/httputil"
)

type Handler struct {
	service *payment.Service
}

func NewHandler(service *payment.Service) *Handler {
	return &Handler{service: service}
}

type totalResponse struct {
	Total decimal.Decimal `json:"total"`
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.GET("", h.ListPayments)
		payments.POST("", h.CreatePayment)
		payments.GET("/summary", h.Summary)
		payments.GET("/total", h.TotalPayments)
		payments.GET("/date-range", h.ListByDateRange)
		payments.GET("/pending-appointments", h.PendingAppointments)
		payments.GET("/method/:method", h.ListByMethod)
		payments.GET("/customer/:customerId", h.ListByCustomer)
		payments.GET("/customer/:customerId/total", h.CustomerTotals)
		payments.GET("/appointment/:appointmentId", h.ListByAppointment)
		payments.GET("/installments/overdue", h.OverdueInstallments)
		payments.POST("/installments/:id/pay", h.PayInstallment)
		payments.GET("/:id", h.GetPayment)
		payments.PUT("/:id", h.UpdatePayment)
		payments.DELETE("/:id", h.DeletePayment)
		payments.PUT("/:id/add-payment", h.AddPayment)
	}
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var req model.CreatePaymentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.CreatePayment(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "payment")
	if !ok {
		return
	}

	p, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.service.ListPayments(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, payments)
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "payment")
	if !ok {
		return
	}
	var req model.UpdatePaymentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpdatePayment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) DeletePayment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "payment")
	if !ok {
		return
	}

	if err := h.service.DeletePayment(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "payment deleted")
}

func (h *Handler) AddPayment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "payment")
	if !ok {
		return
	}
	var req model.AddPaymentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.AddPayment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) PayInstallment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "installment")
	if !ok {
		return
	}
	var req model.PayInstallmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	inst, err := h.service.PayInstallment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inst)
}

func (h *Handler) ListByCustomer(c *gin.Context) {
	id, ok := handler.ParseID(c, "customerId", "customer")
	if !ok {
		return
	}

	payments, err := h.service.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, payments)
}

func (h *Handler) CustomerTotals(c *gin.Context) {
	id, ok := handler.ParseID(c, "customerId", "customer")
	if !ok {
		return
	}

	totals, err := h.service.CustomerTotals(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, totals)
}

func (h *Handler) ListByAppointment(c *gin.Context) {
	id, ok := handler.ParseID(c, "appointmentId", "appointment")
	if !ok {
		return
	}

	payments, err := h.service.ListByAppointment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, payments)
}

func (h *Handler) ListByDateRange(c *gin.Context) {
	start, ok := handler.QueryTime(c, "start_date")
	if !ok {
		return
	}
	end, ok := handler.QueryTime(c, "end_date")
	if !ok {
		return
	}
	if start == nil || end == nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, "start_date and end_date are required")
		return
	}

	payments, err := h.service.ListByDateRange(c.Request.Context(), *start, *end)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, payments)
}

func (h *Handler) ListByMethod(c *gin.Context) {
	payments, err := h.service.ListByMethod(c.Request.Context(), c.Param("method"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, payments)
}

func (h *Handler) TotalPayments(c *gin.Context) {
	start, ok := handler.QueryTime(c, "start_date")
	if !ok {
		return
	}
	end, ok := handler.QueryTime(c, "end_date")
	if !ok {
		return
	}

	total, err := h.service.TotalPayments(c.Request.Context(), start, end)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, totalResponse{Total: total})
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) PendingAppointments(c *gin.Context) {
	pending, err := h.service.PendingAppointments(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pending)
}

func (h *Handler) OverdueInstallments(c *gin.Context) {
	overdue, err := h.service.OverdueInstallments(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, overdue)
}
