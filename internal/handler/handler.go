// Package handler holds the helpers shared by the HTTP handlers in its
// subpackages.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/salon-api/pkg/httputil"
)

const dateLayout = "2006-01-02"

// ParseID reads a uuid path parameter. On failure it responds 400 and
// returns false.
func ParseID(c *gin.Context, param, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, "invalid "+name+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes the request body into req. On failure it responds 400 and
// returns false.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// ParseTime accepts RFC 3339 timestamps and plain dates.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, value)
}

// QueryTime reads an optional time query parameter. It returns nil when the
// parameter is absent. On a malformed value it responds 400 and returns false.
func QueryTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := ParseTime(raw)
	if err != nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, "invalid "+key)
		return nil, false
	}
	return &t, true
}

// QueryUUID reads an optional uuid query parameter.
func QueryUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.RespondWithStatus(c, http.StatusBadRequest, "invalid "+key)
		return nil, false
	}
	return &id, true
}
