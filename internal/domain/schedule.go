package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Schedule entry statuses
const (
	ScheduleStatusPending = "pending"
	ScheduleStatusPartial = "partial"
	ScheduleStatusPaid    = "paid"
	ScheduleStatusOverdue = "overdue"
)

// ScheduleEntry is one expected installment. AmountPaid never exceeds
// AmountDue; the entry is paid exactly when AmountPaid covers AmountDue.
type ScheduleEntry struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	LaybyID    string          `json:"layby_id" db:"layby_id"`
	Sequence   int             `json:"sequence" db:"sequence"`
	DueDate    time.Time       `json:"due_date" db:"due_date"`
	AmountDue  decimal.Decimal `json:"amount_due" db:"amount_due"`
	AmountPaid decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	Status     string          `json:"status" db:"status"` // pending, partial, paid, overdue
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Outstanding returns how much of this installment is still unpaid.
func (e *ScheduleEntry) Outstanding() decimal.Decimal {
	return e.AmountDue.Sub(e.AmountPaid)
}

// Settled reports whether the installment is fully covered.
func (e *ScheduleEntry) Settled() bool {
	return e.AmountPaid.GreaterThanOrEqual(e.AmountDue)
}
