package postgres

import (
	"context"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
)

func (r *tenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	return r.FindOne(ctx, repository.Where("LOWER(subdomain) = LOWER(?)", subdomain))
}
