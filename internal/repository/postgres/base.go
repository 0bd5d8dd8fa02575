package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/salon-api/internal/tenant"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

// querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type txKey struct{}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// NewTransactor exposes WithTx to the service layer.
func NewTransactor(db *sqlx.DB) *BaseRepository {
	r := NewBaseRepository(db)
	return &r
}

// conn returns the transaction carried by ctx, or the database.
func (r *BaseRepository) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return r.db
}

// WithTx executes fn within a transaction. A nested call joins the
// transaction already carried by ctx. When fn fails and the rollback fails
// too, the returned *apperrors.RollbackError still unwraps to fn's error.
func (r *BaseRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return &apperrors.RollbackError{Err: err, RollbackErr: rbErr}
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scopeClause returns the tenant condition for column under the caller's
// scope: no restriction for unpinned super admins, nothing visible without a
// tenant, otherwise an equality on the tenant id.
func (r *BaseRepository) scopeClause(ctx context.Context, column string) (string, []interface{}) {
	scope := tenant.FromContext(ctx)
	if scope.IsSuperAdmin() {
		if id, ok := scope.Pinned(); ok {
			return column + " = ?", []interface{}{id}
		}
		return "1 = 1", nil
	}
	id, ok := scope.CurrentTenantID()
	if !ok {
		return "1 = 0", nil
	}
	return column + " = ?", []interface{}{id}
}
