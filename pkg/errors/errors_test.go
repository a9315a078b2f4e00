package errors

import (
	stderrors "errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidAmountErrorUnwrapsToSentinel(t *testing.T) {
	err := error(&InvalidAmountError{
		Amount:  decimal.NewFromInt(600),
		Balance: decimal.NewFromInt(500),
		Reason:  "payment amount exceeds balance remaining",
	})

	assert.True(t, stderrors.Is(err, ErrInvalidAmount))

	var amountErr *InvalidAmountError
	require.True(t, stderrors.As(err, &amountErr))
	assert.Contains(t, amountErr.Error(), "INVALID_AMOUNT")
	assert.Contains(t, amountErr.Error(), "600")
}

func TestInvalidStateErrorUnwrapsToSentinel(t *testing.T) {
	err := error(&InvalidStateError{
		Status: "CANCELLED",
		Op:     "collect",
		Reason: "layby is CANCELLED",
	})

	assert.True(t, stderrors.Is(err, ErrInvalidState))
	assert.Contains(t, err.Error(), "cannot collect while CANCELLED")
}

func TestBusinessErrorWrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := WrapDatabaseError(cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, ErrCodeDatabaseError, err.Code)

	notFound := WrapLaybyNotFound("LAYBY-1")
	assert.True(t, stderrors.Is(notFound, ErrLaybyNotFound))
	assert.Contains(t, notFound.Error(), "LAYBY-1")
}
