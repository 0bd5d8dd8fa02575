package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository/postgres"
	"github.com/jwalitptl/salon-api/internal/service/payment"
	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/internal/testutil"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// newRouter serves the payment routes with every request acting as ctx's
// scope.
func newRouter(db *sqlx.DB, ctx context.Context) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := payment.NewService(
		payment.Config{},
		postgres.NewTransactor(db),
		postgres.NewPaymentRepository(db),
		postgres.NewInstallmentRepository(db),
		postgres.NewAppointmentRepository(db),
		nil,
		nil,
	)

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		scope := tenant.FromContext(ctx)
		c.Request = c.Request.WithContext(tenant.NewContext(c.Request.Context(), scope))
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func call(t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestPaymentLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	apt := testutil.SeedAppointment(t, db, a, 300, model.AppointmentStatusScheduled)
	r := newRouter(db, a.Ctx())

	code, env := call(t, r, http.MethodPost, "/api/v1/payments", map[string]interface{}{
		"appointment_id":    apt.ID,
		"total_amount":      "300",
		"initial_payment":   "100",
		"payment_method":    "cash",
		"installment_count": 2,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Equal(t, "success", env.Status)

	var created model.Payment
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, model.PaymentStatusPartial, created.Status)
	require.Len(t, created.Installments, 2)
	assert.True(t, created.RemainingAmount.Equal(testutil.Money(200)))

	code, env = call(t, r, http.MethodPost, "/api/v1/payments/installments/"+created.Installments[0].ID.String()+"/pay",
		map[string]interface{}{"payment_method": "card"})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = call(t, r, http.MethodPost, "/api/v1/payments/installments/"+created.Installments[0].ID.String()+"/pay",
		map[string]interface{}{"payment_method": "card"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "error", env.Status)

	code, env = call(t, r, http.MethodPut, "/api/v1/payments/"+created.ID.String()+"/add-payment",
		map[string]interface{}{"payment_amount": "500", "payment_method": "cash", "description": "settled"})
	require.Equal(t, http.StatusOK, code, env.Message)

	var settled model.Payment
	require.NoError(t, json.Unmarshal(env.Data, &settled))
	assert.Equal(t, model.PaymentStatusCompleted, settled.Status)
	assert.True(t, settled.PaidAmount.Equal(testutil.Money(300)))
	assert.True(t, settled.RemainingAmount.IsZero())

	code, env = call(t, r, http.MethodGet, "/api/v1/payments/customer/"+a.Customer.ID.String()+"/total", nil)
	require.Equal(t, http.StatusOK, code)
	var totals model.CustomerPaymentTotals
	require.NoError(t, json.Unmarshal(env.Data, &totals))
	assert.True(t, totals.TotalPaid.Equal(testutil.Money(300)))
	assert.True(t, totals.RemainingBalance.IsZero())

	code, _ = call(t, r, http.MethodGet, "/api/v1/payments/summary", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPaymentErrors(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	b := testutil.SeedSalon(t, db, "bloom", "+900000000002")
	p := testutil.SeedPayment(t, db, testutil.SeedAppointment(t, db, b, 100, model.AppointmentStatusScheduled), 100, 0, "cash")
	r := newRouter(db, a.Ctx())

	code, env := call(t, r, http.MethodGet, "/api/v1/payments/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", env.Status)

	code, env = call(t, r, http.MethodGet, "/api/v1/payments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid payment ID", env.Message)

	code, _ = call(t, r, http.MethodPost, "/api/v1/payments", map[string]interface{}{"payment_method": "cash"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, r, http.MethodGet, "/api/v1/payments/date-range?start_date=2026-01-10", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, r, http.MethodGet, "/api/v1/payments/date-range?start_date=2026-01-10&end_date=2026-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, r, http.MethodGet, "/api/v1/payments/total", nil)
	require.Equal(t, http.StatusOK, code)
	var total totalResponse
	require.NoError(t, json.Unmarshal(env.Data, &total))
	assert.True(t, total.Total.IsZero())
}
