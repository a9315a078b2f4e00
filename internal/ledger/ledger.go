// Package ledger implements the layby lifecycle state machine and balance
// accounting. Every operation takes an order snapshot, works on a deep copy
// and returns either the new snapshot or a typed error with the input
// untouched. The package holds no state and never reads a clock: callers
// pass now explicitly, which keeps every transition deterministic.
package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizpilot/layby-engine/internal/domain"
	laybyerrors "github.com/bizpilot/layby-engine/pkg/errors"
	"github.com/bizpilot/layby-engine/pkg/utils"
)

// RecordPayment applies a payment to the order. The amount must be positive
// and must not exceed the outstanding balance; overpayment is rejected
// rather than refunded, so the total-amount invariant stays exact. Payment
// is allocated to schedule entries oldest-due-first, which keeps the aging
// classification tied to the true oldest unpaid obligation. When the
// balance reaches zero the order moves to READY_FOR_COLLECTION.
func RecordPayment(order *domain.LaybyOrder, amount decimal.Decimal, method, note string, now time.Time) (*domain.LaybyOrder, *domain.PaymentRecord, error) {
	if err := guardMutable(order, "record payment"); err != nil {
		return nil, nil, err
	}
	if order.Status == domain.StatusReadyForCollection {
		return nil, nil, &laybyerrors.InvalidStateError{
			Status: string(order.Status),
			Op:     "record payment",
			Reason: "layby is fully paid and awaiting collection",
		}
	}

	if !domain.ValidPaymentMethod(method) {
		return nil, nil, &laybyerrors.InvalidMethodError{Method: method}
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, &laybyerrors.InvalidAmountError{
			Amount:  amount,
			Balance: order.BalanceRemaining,
			Reason:  "payment amount must be positive",
		}
	}
	if amount.GreaterThan(order.BalanceRemaining) {
		return nil, nil, &laybyerrors.InvalidAmountError{
			Amount:  amount,
			Balance: order.BalanceRemaining,
			Reason:  "payment amount exceeds balance remaining",
		}
	}

	next := order.Clone()

	record := &domain.PaymentRecord{
		ID:            uuid.New(),
		LaybyID:       next.LaybyID,
		Amount:        amount,
		PaymentMethod: method,
		Note:          note,
		CreatedAt:     now,
	}
	next.Payments = append(next.Payments, record)

	next.AmountPaid = next.AmountPaid.Add(amount)
	next.BalanceRemaining = next.TotalAmount.Sub(next.AmountPaid)

	allocate(next.Schedule, amount)
	classify(next, now)

	if next.BalanceRemaining.IsZero() {
		next.Status = domain.StatusReadyForCollection
	}
	next.UpdatedAt = now

	return next, record, nil
}

// Cancel moves an ACTIVE or OVERDUE order to CANCELLED. Money already taken
// stays on the record; any refund is the caller's concern.
func Cancel(order *domain.LaybyOrder, now time.Time) (*domain.LaybyOrder, error) {
	if err := guardMutable(order, "cancel"); err != nil {
		return nil, err
	}
	if order.Status == domain.StatusReadyForCollection {
		return nil, &laybyerrors.InvalidStateError{
			Status: string(order.Status),
			Op:     "cancel",
			Reason: "layby is fully paid and awaiting collection",
		}
	}

	next := order.Clone()
	next.Status = domain.StatusCancelled
	next.UpdatedAt = now
	return next, nil
}

// Collect completes a fully paid order and marks its items collected.
// A balance still outstanding and an already finished order both refuse the
// operation, with reasons a caller can render differently.
func Collect(order *domain.LaybyOrder, now time.Time) (*domain.LaybyOrder, error) {
	if err := guardMutable(order, "collect"); err != nil {
		return nil, err
	}
	if order.Status != domain.StatusReadyForCollection {
		return nil, &laybyerrors.InvalidStateError{
			Status: string(order.Status),
			Op:     "collect",
			Reason: "balance remaining on layby",
		}
	}

	next := order.Clone()
	next.Status = domain.StatusCompleted
	for _, item := range next.Items {
		item.Collected = true
	}
	next.UpdatedAt = now
	return next, nil
}

// RecomputeAging reclassifies schedule entries and the ACTIVE/OVERDUE split
// against now. It is idempotent and never touches orders that are awaiting
// collection or already terminal.
func RecomputeAging(order *domain.LaybyOrder, now time.Time) *domain.LaybyOrder {
	next := order.Clone()
	if !next.Status.Valid() || next.Status.Terminal() || next.Status == domain.StatusReadyForCollection {
		return next
	}
	classify(next, now)
	return next
}

func guardMutable(order *domain.LaybyOrder, op string) error {
	if !order.Status.Valid() {
		return &laybyerrors.InvalidStateError{
			Status: string(order.Status),
			Op:     op,
			Reason: "unknown layby status",
		}
	}
	if order.Status.Terminal() {
		return &laybyerrors.InvalidStateError{
			Status: string(order.Status),
			Op:     op,
			Reason: "layby is " + string(order.Status),
		}
	}
	return nil
}

// allocate settles schedule entries in due-date order until the payment is
// exhausted. RecordPayment has already capped amount at the outstanding
// balance, so the remainder always reaches zero.
func allocate(schedule []*domain.ScheduleEntry, amount decimal.Decimal) {
	entries := make([]*domain.ScheduleEntry, len(schedule))
	copy(entries, schedule)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DueDate.Before(entries[j].DueDate)
	})

	remaining := amount
	for _, entry := range entries {
		if remaining.IsZero() {
			break
		}
		gap := entry.Outstanding()
		if gap.LessThanOrEqual(decimal.Zero) {
			continue
		}
		alloc := decimal.Min(remaining, gap)
		entry.AmountPaid = entry.AmountPaid.Add(alloc)
		remaining = remaining.Sub(alloc)
	}
}

// classify sets each entry's status from its paid amount and due date, then
// derives the order's ACTIVE/OVERDUE classification.
func classify(order *domain.LaybyOrder, now time.Time) {
	anyOverdue := false
	for _, entry := range order.Schedule {
		switch {
		case entry.Settled():
			entry.Status = domain.ScheduleStatusPaid
		case utils.IsDateOverdue(entry.DueDate, now):
			entry.Status = domain.ScheduleStatusOverdue
			anyOverdue = true
		case entry.AmountPaid.GreaterThan(decimal.Zero):
			entry.Status = domain.ScheduleStatusPartial
		default:
			entry.Status = domain.ScheduleStatusPending
		}
	}

	if anyOverdue {
		order.Status = domain.StatusOverdue
	} else {
		order.Status = domain.StatusActive
	}
}
