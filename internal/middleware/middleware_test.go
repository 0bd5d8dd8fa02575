package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository/postgres"
	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/internal/testutil"
	"github.com/jwalitptl/salon-api/pkg/auth"
	"github.com/jwalitptl/salon-api/pkg/httputil"
	"github.com/jwalitptl/salon-api/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	router  *gin.Engine
	jwt     auth.JWTService
	metrics *metrics.Metrics
	tenants *TenantMiddleware
}

// newHarness mounts a handler that echoes the tenant the request resolved to.
func newHarness(t *testing.T, tenants *TenantMiddleware, m *metrics.Metrics) *harness {
	t.Helper()
	jwt := auth.NewJWTService(auth.Config{Secret: "test-secret", Issuer: "salon-api"})

	r := gin.New()
	r.Use(RequestID(), Logger(m), Recovery())
	api := r.Group("/api", NewAuthMiddleware(jwt).Authenticate(), tenants.Resolve())
	api.GET("/whoami", func(c *gin.Context) {
		scope := tenant.FromContext(c.Request.Context())
		id, ok := scope.CurrentTenantID()
		data := gin.H{"super_admin": scope.IsSuperAdmin()}
		if ok {
			data["tenant_id"] = id.String()
		}
		httputil.RespondWithSuccess(c, data)
	})
	api.GET("/admin", RequireSuperAdmin(), func(c *gin.Context) {
		httputil.RespondWithMessage(c, "ok")
	})
	api.GET("/panic", func(c *gin.Context) { panic("boom") })

	return &harness{router: r, jwt: jwt, metrics: m, tenants: tenants}
}

func (h *harness) do(t *testing.T, path string, user *model.User, header map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != nil {
		token, _, err := h.jwt.GenerateAccessToken(user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestTenantResolution(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	root := testutil.SeedUser(t, db, nil, "root", tenant.RoleSuperAdmin)
	m := metrics.NewMetrics("salon", prometheus.NewRegistry())
	tm := NewTenantMiddleware(postgres.NewTenantRepository(db), DefaultTenantConfig(), m)
	h := newHarness(t, tm, m)

	w, body := h.do(t, "/api/whoami", a.User, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, a.Tenant.ID.String(), data["tenant_id"])
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))

	w, body = h.do(t, "/api/whoami", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, true, data["super_admin"])
	assert.Nil(t, data["tenant_id"])

	w, body = h.do(t, "/api/whoami", root, map[string]string{HeaderTenantID: a.Tenant.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, a.Tenant.ID.String(), body["data"].(map[string]interface{})["tenant_id"])

	w, _ = h.do(t, "/api/whoami", root, map[string]string{HeaderTenantID: "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = h.do(t, "/api/whoami", root, map[string]string{HeaderTenantID: uuid.NewString()})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.TenantRejections.WithLabelValues("unknown_tenant")))
}

func TestTenantRejections(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	m := metrics.NewMetrics("salon", prometheus.NewRegistry())
	tm := NewTenantMiddleware(postgres.NewTenantRepository(db), DefaultTenantConfig(), m)
	h := newHarness(t, tm, m)

	w, _ := h.do(t, "/api/whoami", a.User, nil)
	require.Equal(t, http.StatusOK, w.Code)

	orphan := *a.User
	orphan.TenantID = nil
	var body map[string]interface{}
	w, body = h.do(t, "/api/whoami", &orphan, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, 1.0, promtest.ToFloat64(m.TenantRejections.WithLabelValues("missing_tenant")))

	_, err := db.Exec("UPDATE tenants SET is_active = 0 WHERE id = ?", a.Tenant.ID)
	require.NoError(t, err)

	w, _ = h.do(t, "/api/whoami", a.User, nil)
	assert.Equal(t, http.StatusOK, w.Code, "status is cached")

	tm.Forget(a.Tenant.ID)
	w, _ = h.do(t, "/api/whoami", a.User, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.TenantRejections.WithLabelValues("inactive_tenant")))
}

func TestAuthentication(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	m := metrics.NewMetrics("salon", prometheus.NewRegistry())
	h := newHarness(t, NewTenantMiddleware(postgres.NewTenantRepository(db), DefaultTenantConfig(), m), m)

	w, body := h.do(t, "/api/whoami", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing authorization header", body["message"])

	w, _ = h.do(t, "/api/whoami", nil, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(t, "/api/whoami", nil, map[string]string{"Authorization": "Bearer not.a.jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(t, "/api/admin", a.User, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = h.do(t, "/api/panic", a.User, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["message"])
	assert.Equal(t, 1.0, promtest.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/panic", "5xx")))
}

func TestRateLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 2})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
}

func TestSizeLimitAndCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig()), SizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this body is too large"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://aurora.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}
