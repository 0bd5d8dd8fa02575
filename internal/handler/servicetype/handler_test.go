package servicetype

import (
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
	"github.com/jwalitptl/salon-api/internal/service/catalog"
	"github.com/jwalitptl/salon-api/internal/tenant"
	"github.com/jwalitptl/salon-api/internal/testutil"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(db *sqlx.DB, ctx context.Context) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := catalog.NewService(postgres.NewTransactor(db), postgres.NewServiceTypeRepository(db), postgres.NewAppointmentRepository(db))

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Request = c.Request.WithContext(tenant.NewContext(c.Request.Context(), tenant.FromContext(ctx)))
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func get(t *testing.T, r *gin.Engine, path string) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestListServiceTypesActiveFlag(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	testutil.SeedServiceType(t, db, a.Tenant.ID, "Manicure", 40)
	_, err := db.Exec("UPDATE service_types SET is_active = ? WHERE id = ?", false, a.Service.ID)
	require.NoError(t, err)
	r := newRouter(db, a.Ctx())

	tests := []struct {
		query string
		code  int
		count int
	}{
		{"", http.StatusOK, 2},
		{"?active=true", http.StatusOK, 1},
		{"?active=false", http.StatusOK, 2},
		{"?active=1", http.StatusOK, 1},
		{"?active=yes", http.StatusBadRequest, 0},
		{"?active=maybe", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, env := get(t, r, "/api/v1/service-types"+tt.query)
			require.Equal(t, tt.code, code, env.Message)
			if code != http.StatusOK {
				assert.Equal(t, "error", env.Status)
				assert.Equal(t, "invalid active flag", env.Message)
				return
			}
			var types []model.ServiceType
			require.NoError(t, json.Unmarshal(env.Data, &types))
			assert.Len(t, types, tt.count)
		})
	}
}

func TestListByPriceRangeRoute(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedSalon(t, db, "aurora", "+900000000001")
	cheap := testutil.SeedServiceType(t, db, a.Tenant.ID, "Manicure", 40)
	r := newRouter(db, a.Ctx())

	code, env := get(t, r, "/api/v1/service-types/price-range?min_price=10&max_price=50.50")
	require.Equal(t, http.StatusOK, code, env.Message)
	var types []model.ServiceType
	require.NoError(t, json.Unmarshal(env.Data, &types))
	require.Len(t, types, 1)
	assert.Equal(t, cheap.ID, types[0].ID)

	code, env = get(t, r, "/api/v1/service-types/price-range?min_price=ten&max_price=50")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid min_price", env.Message)

	code, _ = get(t, r, "/api/v1/service-types/price-range?min_price=60&max_price=50")
	assert.Equal(t, http.StatusBadRequest, code)
}
