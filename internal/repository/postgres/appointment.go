package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
	"github.com/jwalitptl/salon-api/internal/repository"
)

// detailSelect joins an appointment with the names shown next to it.
func (r *appointmentRepository) detailSelect() string {
	cols := make([]string, len(r.columns))
	for i, c := range r.columns {
		cols[i] = "a." + c
	}
	return fmt.Sprintf(`
		SELECT %s,
			c.first_name || ' ' || c.last_name AS customer_name,
			c.phone AS customer_phone,
			s.name AS service_type_name,
			u.first_name || ' ' || u.last_name AS user_name
		FROM appointments a
		JOIN customers c ON c.id = a.customer_id
		JOIN service_types s ON s.id = a.service_type_id
		JOIN users u ON u.id = a.user_id
	`, strings.Join(cols, ", "))
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	clause, args := r.scopeClause(ctx, "a.tenant_id")
	query := r.detailSelect() + " WHERE a.id = ? AND " + clause

	conn := r.conn(ctx)
	var detail model.AppointmentDetail
	if err := conn.GetContext(ctx, &detail, conn.Rebind(query), append([]interface{}{id}, args...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &detail, nil
}

func (r *appointmentRepository) ListDetails(ctx context.Context, filters model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	clause, args := r.scopeClause(ctx, "a.tenant_id")
	conds := []string{clause}

	if filters.CustomerID != nil {
		conds = append(conds, "a.customer_id = ?")
		args = append(args, *filters.CustomerID)
	}
	if filters.UserID != nil {
		conds = append(conds, "a.user_id = ?")
		args = append(args, *filters.UserID)
	}
	if filters.ServiceTypeID != nil {
		conds = append(conds, "a.service_type_id = ?")
		args = append(args, *filters.ServiceTypeID)
	}
	if filters.Status != nil {
		conds = append(conds, "a.status = ?")
		args = append(args, *filters.Status)
	}
	if filters.From != nil {
		conds = append(conds, "a.appointment_date >= ?")
		args = append(args, *filters.From)
	}
	if filters.To != nil {
		conds = append(conds, "a.appointment_date <= ?")
		args = append(args, *filters.To)
	}

	order := " ORDER BY a.appointment_date DESC"
	if filters.Ascending {
		order = " ORDER BY a.appointment_date"
	}
	query := r.detailSelect() + " WHERE " + strings.Join(conds, " AND ") + order

	conn := r.conn(ctx)
	details := []*model.AppointmentDetail{}
	if err := conn.SelectContext(ctx, &details, conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return details, nil
}

func (r *appointmentRepository) SumFinalPriceByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	return r.SumFinalPrice(ctx, repository.Where("customer_id = ?", customerID))
}

// SumFinalPrice adds up final_price over the visible appointments matching p.
func (r *appointmentRepository) SumFinalPrice(ctx context.Context, p repository.Predicate) (decimal.Decimal, error) {
	where, args := r.where(ctx, p)
	query := "SELECT COALESCE(SUM(final_price), 0) FROM appointments WHERE " + where

	conn := r.conn(ctx)
	var total decimal.Decimal
	if err := conn.GetContext(ctx, &total, conn.Rebind(query), args...); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum appointment prices: %w", err)
	}
	return total, nil
}
