package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a layby order.
type Status string

const (
	StatusActive             Status = "ACTIVE"
	StatusOverdue            Status = "OVERDUE"
	StatusReadyForCollection Status = "READY_FOR_COLLECTION"
	StatusCompleted          Status = "COMPLETED"
	StatusCancelled          Status = "CANCELLED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusOverdue, StatusReadyForCollection, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentFrequency controls how schedule due dates are spaced at creation.
type PaymentFrequency string

const (
	FrequencyWeekly      PaymentFrequency = "weekly"
	FrequencyFortnightly PaymentFrequency = "fortnightly"
	FrequencyMonthly     PaymentFrequency = "monthly"
)

// LaybyOrder is one layby order with its items, schedule and payment log.
// TotalAmount is fixed at creation; AmountPaid starts at DepositAmount and
// only ever grows; BalanceRemaining is always TotalAmount - AmountPaid.
type LaybyOrder struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	LaybyID          string           `json:"layby_id" db:"layby_id"`
	CustomerID       string           `json:"customer_id" db:"customer_id"`
	Status           Status           `json:"status" db:"status"`
	TotalAmount      decimal.Decimal  `json:"total_amount" db:"total_amount"`
	DepositAmount    decimal.Decimal  `json:"deposit_amount" db:"deposit_amount"`
	AmountPaid       decimal.Decimal  `json:"amount_paid" db:"amount_paid"`
	BalanceRemaining decimal.Decimal  `json:"balance_remaining" db:"balance_remaining"`
	Items            []*LaybyItem     `json:"items"`
	Schedule         []*ScheduleEntry `json:"payment_schedule"`
	Payments         []*PaymentRecord `json:"payments"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// LaybyItem is one line of goods held for the customer until collection.
type LaybyItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	LaybyID     string          `json:"layby_id" db:"layby_id"`
	ProductID   string          `json:"product_id" db:"product_id"`
	Description string          `json:"description" db:"description"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total" db:"line_total"`
	Collected   bool            `json:"collected" db:"collected"`
}

// Clone returns a deep copy of the order. Ledger operations work on a clone
// so that a failed guard leaves the caller's snapshot untouched.
func (o *LaybyOrder) Clone() *LaybyOrder {
	cp := *o
	cp.Items = make([]*LaybyItem, len(o.Items))
	for i, item := range o.Items {
		c := *item
		cp.Items[i] = &c
	}
	cp.Schedule = make([]*ScheduleEntry, len(o.Schedule))
	for i, entry := range o.Schedule {
		c := *entry
		cp.Schedule[i] = &c
	}
	cp.Payments = make([]*PaymentRecord, len(o.Payments))
	for i, p := range o.Payments {
		c := *p
		cp.Payments[i] = &c
	}
	return &cp
}

// DTOs for requests and responses

type CreateLaybyItem struct {
	ProductID   string          `json:"product_id" validate:"required"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
}

type CreateLaybyRequest struct {
	LaybyID          string            `json:"layby_id" validate:"required"`
	CustomerID       string            `json:"customer_id" validate:"required"`
	TotalAmount      decimal.Decimal   `json:"total_amount" validate:"required"`
	DepositAmount    decimal.Decimal   `json:"deposit_amount"`
	PaymentFrequency PaymentFrequency  `json:"payment_frequency" validate:"omitempty,oneof=weekly fortnightly monthly"`
	Installments     int               `json:"installments" validate:"omitempty,gt=0"`
	Items            []CreateLaybyItem `json:"items" validate:"required,min=1,dive"`
}

type CreateLaybyResponse struct {
	Layby    *LaybyOrder      `json:"layby"`
	Schedule []*ScheduleEntry `json:"schedule"`
}

type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card eft"`
	Note          string          `json:"note"`
}

type BalanceResponse struct {
	LaybyID          string          `json:"layby_id"`
	Status           Status          `json:"status"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
}

type ScheduleResponse struct {
	LaybyID  string           `json:"layby_id"`
	Schedule []*ScheduleEntry `json:"schedule"`
}

type PaymentsResponse struct {
	LaybyID  string           `json:"layby_id"`
	Payments []*PaymentRecord `json:"payments"`
}
