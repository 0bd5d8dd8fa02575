package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/salon-api/internal/testutil"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	serve := func(checks map[string]Pinger, path string) *httptest.ResponseRecorder {
		r := gin.New()
		NewHandler(db, checks).RegisterRoutes(r)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, serve(nil, "/health/live").Code)
	assert.Equal(t, http.StatusOK, serve(nil, "/health/ready").Code)

	down := map[string]Pinger{"redis": pingFunc(func(context.Context) error { return errors.New("refused") })}
	w := serve(down, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis unavailable")
}
