package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
)

// GetByPhone deliberately skips the tenant filter: phone numbers are unique
// across all salons.
func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	query := fmt.Sprintf("SELECT %s FROM customers WHERE phone = ?", r.selectList())
	return r.getRow(ctx, query, phone)
}

func (r *customerRepository) Search(ctx context.Context, term string) ([]*model.Customer, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.GetAll(ctx)
	}
	like := "%" + strings.ToLower(term) + "%"
	return r.Find(ctx, repository.Where(
		"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?",
		like, like, like, like,
	).Order("first_name, last_name"))
}

func (r *customerRepository) ListActive(ctx context.Context) ([]*model.Customer, error) {
	return r.Find(ctx, repository.Where("is_active = ?", true).Order("first_name, last_name"))
}
