package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lekhsewa/payment-service/internal/adapters/ports"
	"github.com/lekhsewa/payment-service/internal/domain"
	"github.com/shopspring/decimal"
)

// PendingPaymentRepository implements the PendingPaymentRepository port on a
// pgx pool. Schema lives in scripts/migrations.
type PendingPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPendingPaymentRepository creates a new ledger repository
func NewPendingPaymentRepository(pool *pgxpool.Pool) *PendingPaymentRepository {
	return &PendingPaymentRepository{pool: pool}
}

const createPendingPaymentSQL = `
INSERT INTO pending_payments (id, transaction_uuid, product_id, amount, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())`

// Create records a freshly initiated checkout attempt
func (r *PendingPaymentRepository) Create(ctx context.Context, payment *domain.PendingPayment) error {
	id, err := uuid.Parse(payment.ID)
	if err != nil {
		return fmt.Errorf("invalid pending payment ID: %w", err)
	}

	_, err = r.pool.Exec(ctx, createPendingPaymentSQL,
		id,
		payment.TransactionUUID,
		payment.ProductID,
		payment.Amount.String(),
		string(payment.Status),
	)
	if err != nil {
		return fmt.Errorf("create pending payment: %w", err)
	}

	return nil
}

const getPendingPaymentSQL = `
SELECT id, transaction_uuid, product_id, amount::text, status, ref_id, created_at, updated_at
FROM pending_payments
WHERE transaction_uuid = $1`

// GetByTransactionUUID retrieves a ledger row by transaction UUID
func (r *PendingPaymentRepository) GetByTransactionUUID(ctx context.Context, transactionUUID string) (*domain.PendingPayment, error) {
	var (
		id        uuid.UUID
		payment   domain.PendingPayment
		amountStr string
		status    string
		createdAt time.Time
		updatedAt time.Time
	)

	row := r.pool.QueryRow(ctx, getPendingPaymentSQL, transactionUUID)
	err := row.Scan(&id, &payment.TransactionUUID, &payment.ProductID, &amountStr, &status, &payment.RefID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrPendingPaymentNotFound
		}
		return nil, fmt.Errorf("get pending payment: %w", err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount: %w", err)
	}

	payment.ID = id.String()
	payment.Amount = amount
	payment.Status = domain.PaymentStatus(status)
	payment.CreatedAt = createdAt
	payment.UpdatedAt = updatedAt
	return &payment, nil
}

const recordOutcomeSQL = `
UPDATE pending_payments
SET status = $2, ref_id = NULLIF($3, ''), updated_at = now()
WHERE transaction_uuid = $1`

// RecordOutcome stores the terminal state and gateway reference for a
// transaction. Repeating the same outcome is a no-op update.
func (r *PendingPaymentRepository) RecordOutcome(ctx context.Context, transactionUUID string, status domain.PaymentStatus, refID string) error {
	tag, err := r.pool.Exec(ctx, recordOutcomeSQL, transactionUUID, string(status), refID)
	if err != nil {
		return fmt.Errorf("record payment outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrPendingPaymentNotFound
	}
	return nil
}
