package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

// Target resolves the tenant for a new row from the scope in ctx and reports
// failures as application errors.
func Target(ctx context.Context, requested *uuid.UUID) (uuid.UUID, error) {
	id, err := FromContext(ctx).TargetTenant(requested)
	switch {
	case errors.Is(err, ErrForeignTenant):
		return uuid.Nil, apperrors.Forbidden("cannot write to another tenant", err)
	case err != nil:
		return uuid.Nil, apperrors.BadRequest("tenant_id is required", err)
	}
	return id, nil
}
