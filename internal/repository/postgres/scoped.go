package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
	"github.com/jwalitptl/salon-api/internal/tenant"
)

const tenantColumn = "tenant_id"

// Scoped is the generic repository every entity repository is built on.
// If PT implements model.TenantOwned every read and write is restricted to
// the caller's tenant; otherwise the filter is a no-op.
type Scoped[T any, PT interface {
	*T
	model.Entity
}] struct {
	BaseRepository
	table       string
	columns     []string
	tenantOwned bool
}

func NewScoped[T any, PT interface {
	*T
	model.Entity
}](db *sqlx.DB) *Scoped[T, PT] {
	probe := PT(new(T))
	_, owned := any(probe).(model.TenantOwned)

	return &Scoped[T, PT]{
		BaseRepository: NewBaseRepository(db),
		table:          probe.TableName(),
		columns:        probe.Columns(),
		tenantOwned:    owned,
	}
}

// filter is scopeClause for tenant-owned types. Global types are visible to
// super admins and to any caller with a tenant, but not to a caller without
// one.
func (r *Scoped[T, PT]) filter(ctx context.Context) (string, []interface{}) {
	if r.tenantOwned {
		return r.scopeClause(ctx, tenantColumn)
	}
	scope := tenant.FromContext(ctx)
	if scope.IsSuperAdmin() {
		return "1 = 1", nil
	}
	if _, ok := scope.CurrentTenantID(); !ok {
		return "1 = 0", nil
	}
	return "1 = 1", nil
}

func (r *Scoped[T, PT]) selectList() string {
	return strings.Join(r.columns, ", ")
}

func (r *Scoped[T, PT]) selectRows(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	conn := r.conn(ctx)
	rows := []*T{}
	if err := conn.SelectContext(ctx, &rows, conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	return rows, nil
}

func (r *Scoped[T, PT]) getRow(ctx context.Context, query string, args ...interface{}) (*T, error) {
	conn := r.conn(ctx)
	var entity T
	if err := conn.GetContext(ctx, &entity, conn.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", r.table, err)
	}
	return &entity, nil
}

func (r *Scoped[T, PT]) GetAll(ctx context.Context) ([]*T, error) {
	clause, args := r.filter(ctx)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY created_at DESC", r.selectList(), r.table, clause)
	return r.selectRows(ctx, query, args...)
}

func (r *Scoped[T, PT]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	clause, args := r.filter(ctx)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s", r.selectList(), r.table, clause)
	return r.getRow(ctx, query, append([]interface{}{id}, args...)...)
}

func (r *Scoped[T, PT]) Find(ctx context.Context, p repository.Predicate) ([]*T, error) {
	where, args := r.where(ctx, p)
	order := p.OrderBy
	if order == "" {
		order = "created_at DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s", r.selectList(), r.table, where, order)
	if p.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", p.Limit)
	}
	return r.selectRows(ctx, query, args...)
}

// FindOne returns the first row matching p.
func (r *Scoped[T, PT]) FindOne(ctx context.Context, p repository.Predicate) (*T, error) {
	rows, err := r.Find(ctx, p.Take(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return rows[0], nil
}

func (r *Scoped[T, PT]) where(ctx context.Context, p repository.Predicate) (string, []interface{}) {
	clause, clauseArgs := r.filter(ctx)
	if p.Where == "" {
		return clause, clauseArgs
	}
	args := make([]interface{}, 0, len(p.Args)+len(clauseArgs))
	args = append(args, p.Args...)
	args = append(args, clauseArgs...)
	return "(" + p.Where + ") AND " + clause, args
}

// Add inserts entity. For a caller bound to a tenant, including a pinned super
// admin, an unset tenant id is stamped with that tenant; a preset tenant id is
// kept.
func (r *Scoped[T, PT]) Add(ctx context.Context, entity *T) error {
	e := PT(entity)
	if r.tenantOwned {
		stampTenant(ctx, any(e).(model.TenantOwned))
	}
	if e.GetID() == uuid.Nil {
		e.SetID(uuid.New())
	}
	e.Touch(time.Now().UTC())

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		r.table, r.selectList(), strings.Join(r.columns, ", :"))

	if _, err := sqlx.NamedExecContext(ctx, r.conn(ctx), query, entity); err != nil {
		return fmt.Errorf("failed to create %s: %w", r.table, err)
	}
	return nil
}

func stampTenant(ctx context.Context, owned model.TenantOwned) {
	if owned.GetTenantID() != uuid.Nil {
		return
	}
	scope := tenant.FromContext(ctx)
	if scope.IsSuperAdmin() {
		if id, ok := scope.Pinned(); ok {
			owned.SetTenantID(id)
		}
		return
	}
	if id, ok := scope.CurrentTenantID(); ok {
		owned.SetTenantID(id)
	}
}

// Update writes every column except id, created_at and tenant_id. Rows
// outside the caller's tenant are not touched and yield ErrNotFound.
func (r *Scoped[T, PT]) Update(ctx context.Context, entity *T) error {
	e := PT(entity)
	e.Touch(time.Now().UTC())

	sets := make([]string, 0, len(r.columns))
	for _, c := range r.columns {
		switch c {
		case "id", "created_at", tenantColumn:
			continue
		}
		sets = append(sets, c+" = :"+c)
	}

	clause, clauseArgs := r.filter(ctx)
	named := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id AND %s", r.table, strings.Join(sets, ", "), clause)
	query, args, err := sqlx.Named(named, entity)
	if err != nil {
		return fmt.Errorf("failed to bind %s update: %w", r.table, err)
	}
	args = append(args, clauseArgs...)

	conn := r.conn(ctx)
	result, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the row if the caller can see it. Deleting an absent or
// hidden row is a no-op.
func (r *Scoped[T, PT]) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	conn := r.conn(ctx)
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table)
	if _, err := conn.ExecContext(ctx, conn.Rebind(query), id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.table, err)
	}
	return nil
}

func (r *Scoped[T, PT]) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.CountWhere(ctx, repository.Where("id = ?", id))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Scoped[T, PT]) Count(ctx context.Context) (int, error) {
	return r.CountWhere(ctx, repository.Predicate{})
}

func (r *Scoped[T, PT]) CountWhere(ctx context.Context, p repository.Predicate) (int, error) {
	where, args := r.where(ctx, p)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", r.table, where)

	conn := r.conn(ctx)
	var n int
	if err := conn.GetContext(ctx, &n, conn.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.table, err)
	}
	return n, nil
}
