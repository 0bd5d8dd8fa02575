package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-api/internal/handler"
	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/service/auth"
	"github.com/jwalitptl/salon-api/pkg/httputil"
)

// Registrar creates accounts; it decides which callers may create which roles.
type Registrar interface {
	CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
}

type Handler struct {
	svc   *auth.Service
	users Registrar
}

func NewHandler(svc *auth.Service, users Registrar) *Handler {
	return &Handler{svc: svc, users: users}
}

// RegisterRoutes mounts login on public and the caller lookup and
// registration on protected, which must already authenticate.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/auth/login", h.Login)
	protected.GET("/auth/me", h.Me)
	protected.POST("/auth/register", h.Register)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.svc.CurrentUser(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

// Register adds a staff account in the caller's tenant. Only tenant admins and
// super admins may register accounts.
func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	u, err := h.users.CreateUser(c.Request.Context(), req.CreateUserRequest())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, u)
}
