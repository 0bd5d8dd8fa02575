package user

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-api/internal/handler"
	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/service/user"
	"github.com/jwalitptl/salon-api/pkg/httputil"
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	u, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, u)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "user")
	if !ok {
		return
	}

	u, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "user")
	if !ok {
		return
	}
	var req model.UpdateUserRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	u, err := h.service.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := handler.ParseID(c, "id", "user")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "user deleted")
}
