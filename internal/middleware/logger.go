package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/pkg/metrics"
)

// Logger logs every request once it completes and records it in m.
// Request bodies are never logged: they carry customer data.
func Logger(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, status, latency)

		if raw != "" {
			path = path + "?" + raw
		}

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}

		scope := tenant.FromContext(c.Request.Context())
		event = event.
			Str(ContextRequestID, c.GetString(ContextRequestID)).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("user_agent", c.Request.UserAgent())
		if id, ok := scope.CurrentTenantID(); ok {
			event = event.Str("tenant_id", id.String())
		}
		if uid := scope.Identity().UserID; uid != "" {
			event = event.Str("user_id", uid)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("request processed")
	}
}
