package utils

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizpilot/layby-engine/internal/domain"
)

// AddFrequency advances t by the given number of installment periods.
// Monthly uses calendar months, the rest fixed day counts.
func AddFrequency(t time.Time, frequency domain.PaymentFrequency, periods int) time.Time {
	switch frequency {
	case domain.FrequencyWeekly:
		return t.AddDate(0, 0, 7*periods)
	case domain.FrequencyFortnightly:
		return t.AddDate(0, 0, 14*periods)
	case domain.FrequencyMonthly:
		return t.AddDate(0, periods, 0)
	default:
		return t.AddDate(0, 0, 7*periods)
	}
}

// SplitInstallments splits a balance into n installment amounts rounded to
// 2 decimal places. The last installment absorbs the rounding remainder so
// the parts always sum exactly to the balance.
func SplitInstallments(balance decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	per := balance.Div(decimal.NewFromInt(int64(n))).Round(2)
	amounts := make([]decimal.Decimal, n)

	running := decimal.Zero
	for i := 0; i < n-1; i++ {
		amounts[i] = per
		running = running.Add(per)
	}
	amounts[n-1] = balance.Sub(running)

	return amounts
}

// IsDateOverdue checks if a due date has passed relative to now.
func IsDateOverdue(dueDate, now time.Time) bool {
	return now.After(dueDate)
}

// LineTotal multiplies a unit price by a quantity, rounded to currency.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
