package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

func respond(t *testing.T, err error) (int, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithError(c, err)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespondWithErrorMapsCodes(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperrors.NotFound("payment", nil), http.StatusNotFound, "payment not found"},
		{apperrors.Conflict("installment already paid", nil), http.StatusConflict, "installment already paid"},
		{apperrors.BadRequest("amount must be positive", nil), http.StatusBadRequest, "amount must be positive"},
		{apperrors.Forbidden("tenant required", nil), http.StatusForbidden, "tenant required"},
		{apperrors.Internal(errors.New("pq: connection reset")), http.StatusInternalServerError, "Internal server error"},
		{errors.New("raw"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		code, body := respond(t, tt.err)
		assert.Equal(t, tt.status, code)
		assert.Equal(t, "error", body.Status)
		assert.Equal(t, tt.message, body.Message)
	}
}
