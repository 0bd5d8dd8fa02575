package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
)

const paymentOrder = "payment_date DESC, created_at DESC"

func (r *paymentRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Payment, error) {
	return r.Find(ctx, repository.Where("customer_id = ?", customerID).Order(paymentOrder))
}

func (r *paymentRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Payment, error) {
	return r.Find(ctx, repository.Where("appointment_id = ?", appointmentID).Order(paymentOrder))
}

func (r *paymentRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Payment, error) {
	return r.Find(ctx, repository.Where("payment_date >= ? AND payment_date <= ?", start, end).Order(paymentOrder))
}

func (r *paymentRepository) ListByMethod(ctx context.Context, method string) ([]*model.Payment, error) {
	return r.Find(ctx, repository.Where("payment_method = ?", method).Order(paymentOrder))
}

func (r *paymentRepository) ListRecent(ctx context.Context, limit int) ([]*model.Payment, error) {
	return r.Find(ctx, repository.Predicate{}.Order(paymentOrder).Take(limit))
}

func (r *paymentRepository) sum(ctx context.Context, expr string, p repository.Predicate) (decimal.Decimal, error) {
	where, args := r.where(ctx, p)
	query := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) FROM payments WHERE %s", expr, where)

	conn := r.conn(ctx)
	var total decimal.Decimal
	if err := conn.GetContext(ctx, &total, conn.Rebind(query), args...); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}

func (r *paymentRepository) SumPaid(ctx context.Context, start, end *time.Time) (decimal.Decimal, error) {
	p := repository.Predicate{}
	switch {
	case start != nil && end != nil:
		p = repository.Where("payment_date >= ? AND payment_date <= ?", *start, *end)
	case start != nil:
		p = repository.Where("payment_date >= ?", *start)
	case end != nil:
		p = repository.Where("payment_date <= ?", *end)
	}
	return r.sum(ctx, "paid_amount", p)
}

func (r *paymentRepository) SumPaidByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "paid_amount", repository.Where("customer_id = ?", customerID))
}

func (r *paymentRepository) Totals(ctx context.Context) (*model.PaymentTotals, error) {
	clause, args := r.filter(ctx)
	query := `
		SELECT
			COALESCE(SUM(total_amount), 0) AS total_revenue,
			COALESCE(SUM(paid_amount), 0) AS total_paid,
			COALESCE(SUM(remaining_amount), 0) AS total_remaining
		FROM payments
		WHERE ` + clause

	conn := r.conn(ctx)
	var totals model.PaymentTotals
	if err := conn.GetContext(ctx, &totals, conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get payment totals: %w", err)
	}
	return &totals, nil
}

func (r *paymentRepository) CountByStatus(ctx context.Context) (map[model.PaymentStatus]int, error) {
	clause, args := r.filter(ctx)
	query := "SELECT status, COUNT(*) AS n FROM payments WHERE " + clause + " GROUP BY status"

	var rows []struct {
		Status model.PaymentStatus `db:"status"`
		N      int                 `db:"n"`
	}
	conn := r.conn(ctx)
	if err := conn.SelectContext(ctx, &rows, conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to count payments by status: %w", err)
	}

	counts := make(map[model.PaymentStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

// PendingAppointments lists open appointments whose final price is not yet
// covered by the payments recorded against them.
func (r *paymentRepository) PendingAppointments(ctx context.Context) ([]*model.PendingAppointment, error) {
	clause, clauseArgs := r.scopeClause(ctx, "a.tenant_id")
	query := `
		SELECT
			a.id AS appointment_id,
			a.customer_id,
			c.first_name || ' ' || c.last_name AS customer_name,
			s.name AS service_type_name,
			a.appointment_date,
			a.status,
			a.final_price,
			COALESCE(SUM(p.paid_amount), 0) AS paid_amount,
			a.final_price - COALESCE(SUM(p.paid_amount), 0) AS remaining_amount
		FROM appointments a
		JOIN customers c ON c.id = a.customer_id
		JOIN service_types s ON s.id = a.service_type_id
		LEFT JOIN payments p ON p.appointment_id = a.id
		WHERE a.status NOT IN (?, ?) AND ` + clause + `
		GROUP BY a.id, a.customer_id, c.first_name, c.last_name, s.name,
			a.appointment_date, a.status, a.final_price
		HAVING a.final_price - COALESCE(SUM(p.paid_amount), 0) > 0
		ORDER BY a.appointment_date
	`
	args := append([]interface{}{model.AppointmentStatusCancelled, model.AppointmentStatusCompleted}, clauseArgs...)

	conn := r.conn(ctx)
	pending := []*model.PendingAppointment{}
	if err := conn.SelectContext(ctx, &pending, conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list pending appointments: %w", err)
	}
	return pending, nil
}

// ApplyPayment moves min(amount, remaining) from remaining to paid in one
// statement, so concurrent callers cannot lose each other's updates and the
// remaining amount never goes below zero.
func (r *paymentRepository) ApplyPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method *string, note string, at time.Time) error {
	clause, clauseArgs := r.filter(ctx)
	query := `
		UPDATE payments SET
			paid_amount = paid_amount + CASE
				WHEN CAST(? AS NUMERIC) > remaining_amount THEN remaining_amount
				ELSE CAST(? AS NUMERIC)
			END,
			remaining_amount = CASE
				WHEN CAST(? AS NUMERIC) >= remaining_amount THEN 0
				ELSE remaining_amount - CAST(? AS NUMERIC)
			END,
			status = CASE
				WHEN CAST(? AS NUMERIC) >= remaining_amount THEN ?
				ELSE ?
			END,
			payment_method = COALESCE(CAST(? AS TEXT), payment_method),
			description = CASE
				WHEN CAST(? AS TEXT) = '' THEN description
				WHEN description = '' THEN CAST(? AS TEXT)
				ELSE description || ' | ' || CAST(? AS TEXT)
			END,
			updated_at = ?
		WHERE id = ? AND ` + clause

	args := []interface{}{
		amount, amount,
		amount, amount,
		amount, model.PaymentStatusCompleted, model.PaymentStatusPartial,
		method,
		note, note, note,
		at,
		id,
	}
	args = append(args, clauseArgs...)

	conn := r.conn(ctx)
	result, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to apply payment: %w", err)
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

func (r *paymentRepository) UpdateDetails(ctx context.Context, id uuid.UUID, req *model.UpdatePaymentRequest, at time.Time) error {
	clause, clauseArgs := r.filter(ctx)
	query := `
		UPDATE payments SET
			payment_method = COALESCE(CAST(? AS TEXT), payment_method),
			description = COALESCE(CAST(? AS TEXT), description),
			reference_number = COALESCE(CAST(? AS TEXT), reference_number),
			updated_at = ?
		WHERE id = ? AND ` + clause

	args := append([]interface{}{req.PaymentMethod, req.Description, req.ReferenceNumber, at, id}, clauseArgs...)

	conn := r.conn(ctx)
	result, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
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
