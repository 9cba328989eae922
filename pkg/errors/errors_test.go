package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentError(t *testing.T) {
	err := New("BAD_AMOUNT", "amount must be a positive number", CategoryInvalidRequest)

	assert.Equal(t, "BAD_AMOUNT: amount must be a positive number", err.Error())
	assert.Equal(t, CategoryInvalidRequest, err.Category)
}

func TestWithDetail(t *testing.T) {
	err := New("STATUS_CHECK_UNREACHABLE", "status check request failed", CategoryStatusCheckFailed).
		WithDetail("cause", "connection refused")

	assert.Equal(t, "connection refused", err.Details["cause"])
}

func TestIsReceiptFailure(t *testing.T) {
	receiptCategories := []Category{
		CategoryDecode,
		CategoryMalformedReceipt,
		CategoryIncompleteReceipt,
		CategorySignatureMismatch,
		CategoryUnknownTransaction,
		CategoryStatusCheckFailed,
	}
	for _, cat := range receiptCategories {
		assert.True(t, New("X", "x", cat).IsReceiptFailure(), string(cat))
	}

	assert.False(t, New("X", "x", CategoryInvalidRequest).IsReceiptFailure())
	assert.False(t, New("X", "x", CategoryConfiguration).IsReceiptFailure())
	assert.False(t, New("X", "x", CategoryUpgradeFailed).IsReceiptFailure())
}

func TestAsPaymentError(t *testing.T) {
	perr := New("SIGNATURE_MISMATCH", "signature mismatch", CategorySignatureMismatch)
	wrapped := fmt.Errorf("verify: %w", perr)

	got, ok := AsPaymentError(wrapped)
	require.True(t, ok)
	assert.Equal(t, perr, got)

	_, ok = AsPaymentError(fmt.Errorf("plain error"))
	assert.False(t, ok)
}
