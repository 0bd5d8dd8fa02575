package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwalitptl/salon-api/internal/model"
	apperrors "github.com/jwalitptl/salon-api/pkg/errors"
)

// EqualSplit divides remaining into n monthly installments. Each share is
// truncated to cents and the last installment takes what is left, so the
// amounts always add up to remaining. The first falls due one calendar month
// after start.
func EqualSplit(remaining decimal.Decimal, n int, start time.Time) []*model.PaymentInstallment {
	if n <= 0 || !remaining.IsPositive() {
		return nil
	}

	share := remaining.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	plan := make([]*model.PaymentInstallment, 0, n)
	allocated := decimal.Zero

	for i := 1; i <= n; i++ {
		amount := share
		if i == n {
			amount = remaining.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		plan = append(plan, &model.PaymentInstallment{
			Amount:  amount,
			DueDate: AddMonths(start, i),
		})
	}
	return plan
}

// AddMonths moves t forward by n calendar months, clamping the day to the
// last day of the target month (Jan 31 + 1 month is Feb 29 in a leap year).
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// ExplicitPlan turns caller supplied installments into a plan. The amounts
// must be positive and add up to remaining exactly.
func ExplicitPlan(remaining decimal.Decimal, reqs []*model.CreateInstallmentRequest) ([]*model.PaymentInstallment, error) {
	plan := make([]*model.PaymentInstallment, 0, len(reqs))
	sum := decimal.Zero

	for _, r := range reqs {
		if r == nil {
			return nil, apperrors.BadRequest("installment is empty", nil)
		}
		if !r.Amount.IsPositive() {
			return nil, apperrors.BadRequest("installment amount must be greater than zero", nil)
		}
		if err := checkMoney("installment amount", r.Amount); err != nil {
			return nil, err
		}
		if r.DueDate.IsZero() {
			return nil, apperrors.BadRequest("installment due date is required", nil)
		}
		sum = sum.Add(r.Amount)
		plan = append(plan, &model.PaymentInstallment{
			Amount:  r.Amount,
			DueDate: r.DueDate,
			Notes:   r.Notes,
		})
	}

	if !sum.Equal(remaining) {
		return nil, apperrors.BadRequest("installments must add up to the remaining amount "+remaining.StringFixed(2), nil)
	}
	return plan, nil
}

// BuildPlan picks the installment schedule for a new payment. An explicit
// count wins over an explicit list. Nothing is scheduled when the payment is
// settled up front.
func BuildPlan(remaining decimal.Decimal, req *model.CreatePaymentRequest, start time.Time) ([]*model.PaymentInstallment, error) {
	if !remaining.IsPositive() {
		return nil, nil
	}
	if req.InstallmentCount != nil && *req.InstallmentCount > 0 {
		return EqualSplit(remaining, *req.InstallmentCount, start), nil
	}
	if len(req.Installments) > 0 {
		return ExplicitPlan(remaining, req.Installments)
	}
	return nil, nil
}
