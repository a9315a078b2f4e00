package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted at the register.
const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
	PaymentMethodEFT  = "eft"
)

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodEFT:
		return true
	}
	return false
}

// PaymentRecord is one received payment. Records are append-only: once
// written they are never mutated or deleted.
type PaymentRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	LaybyID       string          `json:"layby_id" db:"layby_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Note          string          `json:"note,omitempty" db:"note"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
