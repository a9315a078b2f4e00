package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrLaybyNotFound      = errors.New("layby not found")
	ErrLaybyAlreadyExists = errors.New("layby already exists")
	ErrInvalidAmount      = errors.New("invalid payment amount")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrInvalidState       = errors.New("operation not valid in current state")
	ErrItemTotalMismatch  = errors.New("item totals do not match layby total")
	ErrInvalidDeposit     = errors.New("deposit must be between zero and the layby total")
)

// Error codes
const (
	ErrCodeLaybyNotFound      = "LAYBY_NOT_FOUND"
	ErrCodeLaybyAlreadyExists = "LAYBY_ALREADY_EXISTS"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeInvalidMethod      = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeItemTotalMismatch  = "ITEM_TOTAL_MISMATCH"
	ErrCodeInvalidDeposit     = "INVALID_DEPOSIT"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeCacheError         = "CACHE_ERROR"
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// InvalidAmountError rejects a payment amount that is non-positive or
// exceeds the outstanding balance. The order snapshot is left unchanged;
// callers should surface Reason as a validation message.
type InvalidAmountError struct {
	Amount  decimal.Decimal
	Balance decimal.Decimal
	Reason  string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s: %s (amount %s, balance %s)",
		ErrCodeInvalidAmount, e.Reason, e.Amount.String(), e.Balance.String())
}

func (e *InvalidAmountError) Unwrap() error {
	return ErrInvalidAmount
}

// InvalidMethodError rejects a payment method outside the accepted set
// (cash, card, eft). Enforced in the ledger so a PaymentRecord can never be
// minted with an unknown method, whatever the transport validated.
type InvalidMethodError struct {
	Method string
}

func (e *InvalidMethodError) Error() string {
	return fmt.Sprintf("%s: %q is not an accepted payment method", ErrCodeInvalidMethod, e.Method)
}

func (e *InvalidMethodError) Unwrap() error {
	return ErrInvalidMethod
}

// InvalidStateError rejects a transition that is not legal from the order's
// current status. Reason distinguishes a balance still outstanding from an
// order that already reached a terminal state.
type InvalidStateError struct {
	Status string
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s: %s", ErrCodeInvalidState, e.Op, e.Status, e.Reason)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// Wrap common errors with business context

func WrapLaybyNotFound(laybyID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLaybyNotFound,
		fmt.Sprintf("Layby with ID %s not found", laybyID),
		ErrLaybyNotFound,
	)
}

func WrapLaybyAlreadyExists(laybyID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLaybyAlreadyExists,
		fmt.Sprintf("Layby with ID %s already exists", laybyID),
		ErrLaybyAlreadyExists,
	)
}

func WrapItemTotalMismatch(expected, actual string) *BusinessError {
	return NewBusinessError(
		ErrCodeItemTotalMismatch,
		fmt.Sprintf("Item totals %s do not match layby total %s", actual, expected),
		ErrItemTotalMismatch,
	)
}

func WrapInvalidDeposit(deposit, total string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidDeposit,
		fmt.Sprintf("Deposit %s must be between 0 and the layby total %s", deposit, total),
		ErrInvalidDeposit,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
