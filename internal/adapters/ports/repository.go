package ports

import (
	"context"
	"errors"

	"github.com/lekhsewa/payment-service/internal/domain"
)

// ErrPendingPaymentNotFound is returned when a transaction UUID has no ledger
// row, i.e. this service never issued it.
var ErrPendingPaymentNotFound = errors.New("pending payment not found")

// PendingPaymentRepository persists the ledger of checkout attempts issued by
// this service
type PendingPaymentRepository interface {
	// Create records a freshly initiated checkout attempt
	Create(ctx context.Context, payment *domain.PendingPayment) error

	// GetByTransactionUUID retrieves a ledger row by its transaction UUID.
	// Returns ErrPendingPaymentNotFound when the UUID was never issued.
	GetByTransactionUUID(ctx context.Context, transactionUUID string) (*domain.PendingPayment, error)

	// RecordOutcome stores the terminal state and gateway reference for a
	// transaction. Safe to call repeatedly with the same outcome.
	RecordOutcome(ctx context.Context, transactionUUID string, status domain.PaymentStatus, refID string) error
}
