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
)

// Installments carry no tenant column. Every query joins the owning payment
// and filters on its tenant.

func (r *installmentRepository) columns() []string {
	return (*model.PaymentInstallment)(nil).Columns()
}

func (r *installmentRepository) selectFrom() string {
	cols := r.columns()
	prefixed := make([]string, len(cols))
	for i, c := range cols {
		prefixed[i] = "i." + c
	}
	return fmt.Sprintf(`
		SELECT %s
		FROM payment_installments i
		JOIN payments p ON p.id = i.payment_id
	`, strings.Join(prefixed, ", "))
}

func (r *installmentRepository) AddBatch(ctx context.Context, installments []*model.PaymentInstallment) error {
	if len(installments) == 0 {
		return nil
	}

	cols := r.columns()
	query := fmt.Sprintf("INSERT INTO payment_installments (%s) VALUES (:%s)",
		strings.Join(cols, ", "), strings.Join(cols, ", :"))

	now := time.Now().UTC()
	conn := r.conn(ctx)
	for _, inst := range installments {
		if inst.ID == uuid.Nil {
			inst.ID = uuid.New()
		}
		inst.Touch(now)
		if _, err := sqlx.NamedExecContext(ctx, conn, query, inst); err != nil {
			return fmt.Errorf("failed to create installment: %w", err)
		}
	}
	return nil
}

func (r *installmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentInstallment, error) {
	clause, args := r.scopeClause(ctx, "p.tenant_id")
	query := r.selectFrom() + " WHERE i.id = ? AND " + clause

	conn := r.conn(ctx)
	var inst model.PaymentInstallment
	if err := conn.GetContext(ctx, &inst, conn.Rebind(query), append([]interface{}{id}, args...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get installment: %w", err)
	}
	return &inst, nil
}

func (r *installmentRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*model.PaymentInstallment, error) {
	clause, args := r.scopeClause(ctx, "p.tenant_id")
	query := r.selectFrom() + " WHERE i.payment_id = ? AND " + clause + " ORDER BY i.due_date, i.created_at"
	return r.list(ctx, query, append([]interface{}{paymentID}, args...)...)
}

func (r *installmentRepository) ListByPayments(ctx context.Context, paymentIDs []uuid.UUID) (map[uuid.UUID][]*model.PaymentInstallment, error) {
	grouped := make(map[uuid.UUID][]*model.PaymentInstallment, len(paymentIDs))
	if len(paymentIDs) == 0 {
		return grouped, nil
	}

	clause, clauseArgs := r.scopeClause(ctx, "p.tenant_id")
	query, args, err := sqlx.In(
		r.selectFrom()+" WHERE i.payment_id IN (?) AND "+clause+" ORDER BY i.due_date, i.created_at",
		append([]interface{}{paymentIDs}, clauseArgs...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build installment query: %w", err)
	}

	installments, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, inst := range installments {
		grouped[inst.PaymentID] = append(grouped[inst.PaymentID], inst)
	}
	return grouped, nil
}

func (r *installmentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.PaymentInstallment, error) {
	conn := r.conn(ctx)
	installments := []*model.PaymentInstallment{}
	if err := conn.SelectContext(ctx, &installments, conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	return installments, nil
}

// MarkPaid only flips an unpaid installment, so two concurrent calls cannot
// both succeed.
func (r *installmentRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time, method string, notes *string) error {
	clause, clauseArgs := r.scopeClause(ctx, tenantColumn)
	query := `
		UPDATE payment_installments SET
			is_paid = ?,
			paid_date = ?,
			payment_method = ?,
			notes = COALESCE(CAST(? AS TEXT), notes),
			updated_at = ?
		WHERE id = ? AND is_paid = ?
			AND payment_id IN (SELECT id FROM payments WHERE ` + clause + `)`

	args := append([]interface{}{true, paidAt, method, notes, paidAt, id, false}, clauseArgs...)

	conn := r.conn(ctx)
	result, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to mark installment paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *installmentRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]*model.PaymentInstallment, error) {
	clause, args := r.scopeClause(ctx, "p.tenant_id")
	query := r.selectFrom() + `
		WHERE i.is_paid = ? AND i.due_date >= ? AND i.due_date <= ? AND ` + clause + `
		ORDER BY i.due_date`
	return r.list(ctx, query, append([]interface{}{false, from, to}, args...)...)
}

func (r *installmentRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*model.OverdueInstallment, error) {
	clause, clauseArgs := r.scopeClause(ctx, "p.tenant_id")

	cols := r.columns()
	prefixed := make([]string, len(cols))
	for i, c := range cols {
		prefixed[i] = "i." + c
	}
	query := fmt.Sprintf(`
		SELECT %s,
			p.customer_id,
			c.first_name || ' ' || c.last_name AS customer_name,
			c.phone AS customer_phone,
			p.appointment_id
		FROM payment_installments i
		JOIN payments p ON p.id = i.payment_id
		JOIN customers c ON c.id = p.customer_id
		WHERE i.is_paid = ? AND i.due_date < ? AND %s
		ORDER BY i.due_date
	`, strings.Join(prefixed, ", "), clause)

	conn := r.conn(ctx)
	overdue := []*model.OverdueInstallment{}
	args := append([]interface{}{false, asOf}, clauseArgs...)
	if err := conn.SelectContext(ctx, &overdue, conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list overdue installments: %w", err)
	}

	for _, o := range overdue {
		o.DaysOverdue = int(asOf.Sub(o.DueDate).Hours() / 24)
	}
	return overdue, nil
}

func (r *installmentRepository) DeleteByPayment(ctx context.Context, paymentID uuid.UUID) error {
	clause, clauseArgs := r.scopeClause(ctx, tenantColumn)
	query := `
		DELETE FROM payment_installments
		WHERE payment_id = ? AND payment_id IN (SELECT id FROM payments WHERE ` + clause + `)`

	conn := r.conn(ctx)
	if _, err := conn.ExecContext(ctx, conn.Rebind(query), append([]interface{}{paymentID}, clauseArgs...)...); err != nil {
		return fmt.Errorf("failed to delete installments: %w", err)
	}
	return nil
}
