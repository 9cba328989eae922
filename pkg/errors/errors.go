package errors

import (
	"errors"
	"fmt"
)

// Category classifies protocol failures for transport mapping and logging
type Category string

const (
	// CategoryInvalidRequest is bad or missing client input (HTTP 400)
	CategoryInvalidRequest Category = "invalid_request"

	// CategoryConfiguration is a missing deployment secret or URL (HTTP 500).
	// Responses in this category must never echo secret values.
	CategoryConfiguration Category = "configuration"

	// Receipt categories: expected adversarial or benign-garbage input.
	// These always resolve to verified=false with HTTP 400, never 500.
	CategoryDecode             Category = "decode_error"
	CategoryMalformedReceipt   Category = "malformed_receipt"
	CategoryIncompleteReceipt  Category = "incomplete_receipt"
	CategorySignatureMismatch  Category = "signature_mismatch"
	CategoryUnknownTransaction Category = "unknown_transaction"

	// CategoryStatusCheckFailed is the gateway being unreachable or returning
	// an unexpected body. verified=false, logged for operator attention.
	CategoryStatusCheckFailed Category = "status_check_failed"

	// CategoryUpgradeFailed is a partial failure after a confirmed payment.
	// Logged loudly as a reconciliation item; never flips verified back.
	CategoryUpgradeFailed Category = "upgrade_failed"
)

// PaymentError carries enough context to classify a failure at the handler
// boundary and to support incident review, without leaking deployment secrets
// into responses.
type PaymentError struct {
	Code     string
	Message  string
	Category Category
	Details  map[string]interface{}
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates a payment error
func New(code, message string, category Category) *PaymentError {
	return &PaymentError{
		Code:     code,
		Message:  message,
		Category: category,
		Details:  make(map[string]interface{}),
	}
}

// WithDetail attaches a context value for logging and returns the error
func (e *PaymentError) WithDetail(key string, value interface{}) *PaymentError {
	e.Details[key] = value
	return e
}

// IsReceiptFailure reports whether the category is an expected
// untrusted-receipt failure: always verified=false and HTTP 400, never a
// server fault.
func (e *PaymentError) IsReceiptFailure() bool {
	switch e.Category {
	case CategoryDecode, CategoryMalformedReceipt, CategoryIncompleteReceipt,
		CategorySignatureMismatch, CategoryUnknownTransaction, CategoryStatusCheckFailed:
		return true
	}
	return false
}

// AsPaymentError unwraps err into a *PaymentError if one is in the chain
func AsPaymentError(err error) (*PaymentError, bool) {
	var perr *PaymentError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
