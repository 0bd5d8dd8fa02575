package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/salon-api/internal/config"
	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/internal/testutil"
	"github.com/jwalitptl/salon-api/pkg/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{MaxBodyBytes: 1 << 20},
		JWT:     config.JWTConfig{Secret: "test-secret", Issuer: "salon-api", ExpiryHours: 1},
		Ledger:  config.LedgerConfig{UpcomingWindowDays: 7, RecentLimit: 5},
		Metrics: config.MetricsConfig{Namespace: "salon"},
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	return doFor(t, h, method, path, token, "", body)
}

// doFor sends the request pinned to tenantID when it is set.
func doFor(t *testing.T, h http.Handler, method, path, token, tenantID string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func login(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	w, env := do(t, h, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Login: username, Password: "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// setPasswords gives every seeded user the password login uses.
func setPasswords(t *testing.T, db *sqlx.DB) {
	t.Helper()
	hash, err := security.NewBcryptHasher(bcrypt.MinCost).Hash("correct-horse")
	require.NoError(t, err)
	_, err = db.Exec("UPDATE users SET password_hash = ?", hash)
	require.NoError(t, err)
}

func TestEndToEnd(t *testing.T) {
	db := testutil.NewDB(t)
	salon := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	testutil.SeedUser(t, db, nil, "root", tenant.RoleSuperAdmin)
	setPasswords(t, db)

	h := New(testConfig(), db, Options{BcryptCost: bcrypt.MinCost}).Engine()

	w, _ := do(t, h, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, h, http.MethodGet, "/api/v1/customers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	staff := login(t, h, "aurora-staff")

	w, env := do(t, h, http.MethodGet, "/api/v1/customers", staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var customers []model.Customer
	require.NoError(t, json.Unmarshal(env.Data, &customers))
	require.Len(t, customers, 1)
	assert.Equal(t, salon.Customer.ID, customers[0].ID)

	w, _ = do(t, h, http.MethodGet, "/api/v1/super-admin/tenants", staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	root := login(t, h, "root")
	w, env = do(t, h, http.MethodGet, "/api/v1/super-admin/tenants", root, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tenants []model.Tenant
	require.NoError(t, json.Unmarshal(env.Data, &tenants))
	assert.Len(t, tenants, 1)

	other := testutil.SeedSalon(t, db, "bloom", "+900000000002")
	w, env = doFor(t, h, http.MethodGet, "/api/v1/customers", root, salon.Tenant.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &customers))
	require.Len(t, customers, 1)
	assert.Equal(t, salon.Customer.ID, customers[0].ID)

	w, env = doFor(t, h, http.MethodPost, "/api/v1/customers", root, other.Tenant.ID.String(),
		model.CreateCustomerRequest{FirstName: "Elif", LastName: "Kaya", Phone: "+905551112233"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Customer
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, other.Tenant.ID, created.TenantID)

	w, _ = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "salon_http_requests_total")
}

func TestRegisterAndSalonQueries(t *testing.T) {
	db := testutil.NewDB(t)
	salon := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	testutil.SeedUser(t, db, nil, "root", tenant.RoleSuperAdmin)
	setPasswords(t, db)
	apt := testutil.SeedAppointment(t, db, salon, 200, model.AppointmentStatusCompleted)
	testutil.SeedPayment(t, db, apt, 200, 50, "cash")

	h := New(testConfig(), db, Options{BcryptCost: bcrypt.MinCost}).Engine()
	staff := login(t, h, "aurora-staff")
	root := login(t, h, "root")

	register := model.RegisterRequest{
		Username:  "aurora-new",
		Email:     "new@aurora.example.com",
		Password:  "correct-horse",
		FirstName: "Deniz",
		LastName:  "Yilmaz",
	}
	w, _ := do(t, h, http.MethodPost, "/api/v1/auth/register", "", register)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/auth/register", staff, register)
	assert.Equal(t, http.StatusForbidden, w.Code, "employees cannot register accounts")

	w, env := doFor(t, h, http.MethodPost, "/api/v1/auth/register", root, salon.Tenant.ID.String(), register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered model.User
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	assert.Equal(t, tenant.RoleEmployee, registered.Role)
	assert.Equal(t, salon.Tenant.ID, registered.GetTenantID())
	assert.NotEmpty(t, login(t, h, "aurora-new"))

	w, _ = doFor(t, h, http.MethodPost, "/api/v1/auth/register", root, salon.Tenant.ID.String(), register)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = do(t, h, http.MethodGet, "/api/v1/customers/active", staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var customers []model.Customer
	require.NoError(t, json.Unmarshal(env.Data, &customers))
	assert.Len(t, customers, 1)

	w, env = do(t, h, http.MethodGet, "/api/v1/customers/"+salon.Customer.ID.String()+"/details", staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var details struct {
		ID               string            `json:"id"`
		Appointments     []json.RawMessage `json:"appointments"`
		Payments         []json.RawMessage `json:"payments"`
		TotalPaid        decimal.Decimal   `json:"total_paid"`
		RemainingBalance decimal.Decimal   `json:"remaining_balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Equal(t, salon.Customer.ID.String(), details.ID)
	assert.Len(t, details.Appointments, 1)
	assert.Len(t, details.Payments, 1)
	assert.True(t, details.TotalPaid.Equal(testutil.Money(50)))
	assert.True(t, details.RemainingBalance.Equal(testutil.Money(150)))

	for _, path := range []string{
		"/api/v1/appointments/today",
		"/api/v1/appointments/customer/" + salon.Customer.ID.String() + "/upcoming",
		"/api/v1/appointments/service/" + salon.Service.ID.String(),
		"/api/v1/service-types/price-range?min_price=0&max_price=500",
	} {
		w, _ = do(t, h, http.MethodGet, path, staff, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w, _ = do(t, h, http.MethodGet, "/api/v1/appointments/revenue", staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	from := time.Now().UTC().AddDate(0, 0, -1).Format(time.RFC3339)
	to := time.Now().UTC().AddDate(0, 0, 1).Format(time.RFC3339)
	w, env = do(t, h, http.MethodGet, "/api/v1/appointments/revenue?start_date="+from+"&end_date="+to, staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var revenue model.Revenue
	require.NoError(t, json.Unmarshal(env.Data, &revenue))
	assert.True(t, revenue.TotalRevenue.Equal(testutil.Money(200)), revenue.TotalRevenue.String())

	w, _ = do(t, h, http.MethodGet, "/api/v1/service-types?active=maybe", staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
