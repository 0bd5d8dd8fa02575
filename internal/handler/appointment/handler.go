package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-api/internal/handler"
	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/service/appointment"
	"github.com/jwalitptl/salon-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

type statusRequest struct {
	Status model.AppointmentStatus `json:"status" binding:"required"`
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("/today", h.Today)
		appointments.GET("/revenue", h.Revenue)
		appointments.GET("/customer/:id/upcoming", h.Upcoming)
		appointments.GET("/service/:id", h.ListByServiceType)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
		appointments.PUT("/:id/status", h.UpdateStatus)
		appointments.POST("/:id/complete-session", h.CompleteSession)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.CreateAppointment(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}

	apt, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var (
		filters model.AppointmentFilters
		ok      bool
	)
	if filters.CustomerID, ok = handler.QueryUUID(c, "customer_id"); !ok {
		return
	}
	if filters.UserID, ok = handler.QueryUUID(c, "user_id"); !ok {
		return
	}
	if filters.From, ok = handler.QueryTime(c, "from"); !ok {
		return
	}
	if filters.To, ok = handler.QueryTime(c, "to"); !ok {
		return
	}
	if status := c.Query("status"); status != "" {
		s := model.AppointmentStatus(status)
		filters.Status = &s
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Today(c *gin.Context) {
	appointments, err := h.service.Today(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Upcoming(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "customer")
	if !ok {
		return
	}

	appointments, err := h.service.Upcoming(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) ListByServiceType(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "service type")
	if !ok {
		return
	}

	appointments, err := h.service.ListByServiceType(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

// Revenue needs both start_date and end_date.
func (h *Handler) Revenue(c *gin.Context) {
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

	revenue, err := h.service.Revenue(c.Request.Context(), *start, *end)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, revenue)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}
	var req model.UpdateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.UpdateAppointment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}
	var req statusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	apt, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) CompleteSession(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}

	apt, err := h.service.CompleteSession(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "appointment")
	if !ok {
		return
	}

	if err := h.service.DeleteAppointment(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "appointment deleted")
}
