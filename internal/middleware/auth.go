package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/pkg/auth"
	"github.com/jwalitptl/salon-api/pkg/httputil"
)

const ContextClaims = "claims"

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate verifies the bearer token and puts the caller's tenant scope
// on the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithStatus(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondWithStatus(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithStatus(c, http.StatusUnauthorized, "invalid token")
			return
		}

		scope := tenant.NewScope(tenant.Identity{
			UserID:        claims.UserID,
			Role:          tenant.Role(claims.Role),
			TenantClaim:   claims.TenantID,
			Authenticated: true,
		})
		c.Set(ContextClaims, claims)
		c.Request = c.Request.WithContext(tenant.NewContext(c.Request.Context(), scope))
		c.Next()
	}
}

// RequireRoles lets through callers holding one of roles. Super admins are
// always let through.
func RequireRoles(roles ...tenant.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := tenant.FromContext(c.Request.Context())
		if scope.IsSuperAdmin() {
			c.Next()
			return
		}
		role := scope.Identity().Role
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		httputil.RespondWithStatus(c, http.StatusForbidden, "permission denied")
	}
}

func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRoles()
}
