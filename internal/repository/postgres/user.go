package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/salon-api/internal/model"
)

// GetByLogin runs before any tenant is known, so it is not tenant filtered.
func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)
	`, r.selectList())
	return r.getRow(ctx, query, login, login)
}

func (r *userRepository) LoginTaken(ctx context.Context, username, email string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT COUNT(*) FROM users
		WHERE (LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)) AND id <> ?
	`
	conn := r.conn(ctx)
	var n int
	if err := conn.GetContext(ctx, &n, conn.Rebind(query), username, email, excludeID); err != nil {
		return false, fmt.Errorf("failed to check user login: %w", err)
	}
	return n > 0, nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	conn := r.conn(ctx)
	query := `UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`
	if _, err := conn.ExecContext(ctx, conn.Rebind(query), at, at, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
