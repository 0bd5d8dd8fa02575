package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
)

func (r *serviceTypeRepository) ListActive(ctx context.Context) ([]*model.ServiceType, error) {
	return r.Find(ctx, repository.Where("is_active = ?", true).Order("name"))
}

func (r *serviceTypeRepository) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal) ([]*model.ServiceType, error) {
	return r.Find(ctx, repository.Where(
		"is_active = ? AND price >= ? AND price <= ?", true, minPrice, maxPrice,
	).Order("price, name"))
}
