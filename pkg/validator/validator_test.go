package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Plan     string `json:"plan" validate:"omitempty,oneof=basic premium"`
}

func TestValidate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&signup{Email: "a@b.co", Password: "longenough"}))

	tests := []struct {
		name string
		in   signup
		msg  string
	}{
		{"missing email", signup{Password: "longenough"}, "email is required"},
		{"bad email", signup{Email: "nope", Password: "longenough"}, "email must be a valid email"},
		{"short password", signup{Email: "a@b.co", Password: "short"}, "password must be at least 8"},
		{"unknown plan", signup{Email: "a@b.co", Password: "longenough", Plan: "gold"}, "plan must be one of [basic premium]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
			assert.Equal(t, tt.msg, appErr.Message)
		})
	}
}
