package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/pkg/httputil"
)

// Recovery turns a handler panic into a 500 envelope and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("client_ip", c.ClientIP()).
					Str(ContextRequestID, c.GetString(ContextRequestID)).
					Msg("request panic recovered")

				httputil.RespondWithStatus(c, http.StatusInternalServerError, "Internal server error")
			}
		}()
		c.Next()
	}
}
