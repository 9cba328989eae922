package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lekhsewa/payment-service/internal/adapters/ports"
	"github.com/lekhsewa/payment-service/internal/domain"
	apperrors "github.com/lekhsewa/payment-service/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service owns the payment-initiation-and-verification protocol. It is
// request-scoped and stateless between calls; the only durable state is the
// pending-payment ledger behind the repository port.
type Service struct {
	gateway ports.EsewaGateway
	repo    ports.PendingPaymentRepository
	account ports.AccountClient
	logger  *zap.Logger
}

// NewService creates a new payment service
func NewService(
	gateway ports.EsewaGateway,
	repo ports.PendingPaymentRepository,
	account ports.AccountClient,
	logger *zap.Logger,
) *Service {
	return &Service{
		gateway: gateway,
		repo:    repo,
		account: account,
		logger:  logger,
	}
}

// InitiatePayment builds and signs a checkout attempt and records it in the
// pending ledger before the browser is handed off to the gateway. The
// returned field set must be posted to the gateway unmodified: no renaming,
// omission or reordering.
func (s *Service) InitiatePayment(ctx context.Context, amount, productID string) (*ports.CheckoutForm, error) {
	if strings.TrimSpace(amount) == "" || strings.TrimSpace(productID) == "" {
		return nil, apperrors.New("MISSING_INPUT", "amount and productId are required", apperrors.CategoryInvalidRequest)
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil || !amt.IsPositive() {
		return nil, apperrors.New("BAD_AMOUNT", "amount must be a positive number", apperrors.CategoryInvalidRequest)
	}

	// Canonical wire form: bare digits, no currency symbols or separators.
	totalAmount := amt.String()

	// One UUID per checkout attempt, never reused. This is the sole
	// correlation key between initiation and verification.
	transactionUUID := uuid.New().String()

	request, err := s.gateway.BuildPaymentRequest(totalAmount, transactionUUID)
	if err != nil {
		return nil, err
	}

	pending := &domain.PendingPayment{
		ID:              uuid.New().String(),
		TransactionUUID: transactionUUID,
		ProductID:       productID,
		Amount:          amt,
		Status:          domain.PaymentStatusInitiated,
	}
	if err := s.repo.Create(ctx, pending); err != nil {
		return nil, fmt.Errorf("record pending payment: %w", err)
	}

	s.logger.Info("payment initiated",
		zap.String("transaction_uuid", transactionUUID),
		zap.String("product_id", productID),
		zap.String("total_amount", totalAmount),
	)

	return &ports.CheckoutForm{
		PostURL: s.gateway.CheckoutFormURL(),
		Fields:  request.FormFields(),
	}, nil
}

// VerifyPayment re-derives the truth about one receipt: decode, signature,
// ledger membership, then the gateway's authoritative status check. Client
// claims are never trusted; the result is computed entirely server-side.
//
// Repeated verification of the same valid receipt yields the same result and
// re-triggers the idempotent upgrade call.
func (s *Service) VerifyPayment(ctx context.Context, encodedReceipt, userID string) (*domain.VerificationResult, error) {
	receipt, err := s.gateway.DecodeReceipt(encodedReceipt)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.VerifyReceiptSignature(receipt); err != nil {
		return nil, err
	}

	transactionUUID := receipt.TransactionUUID()
	totalAmount := receipt.TotalAmount()
	if transactionUUID == "" || totalAmount == "" {
		return nil, apperrors.New("INCOMPLETE_RECEIPT", "decoded data missing transaction_uuid or total_amount", apperrors.CategoryIncompleteReceipt)
	}

	// A signed receipt for a UUID we never issued passes the gateway's checks
	// but not ours.
	pending, err := s.repo.GetByTransactionUUID(ctx, transactionUUID)
	if err != nil {
		if errors.Is(err, ports.ErrPendingPaymentNotFound) {
			return nil, apperrors.New("UNKNOWN_TRANSACTION", "transaction was not issued by this service", apperrors.CategoryUnknownTransaction)
		}
		return nil, fmt.Errorf("load pending payment: %w", err)
	}

	status, err := s.gateway.CheckStatus(ctx, totalAmount, transactionUUID)
	if err != nil {
		return nil, err
	}

	result := &domain.VerificationResult{
		Verified:        status.Status == domain.GatewayStatusComplete,
		Status:          status.Status,
		TransactionUUID: transactionUUID,
		TotalAmount:     totalAmount,
		RefID:           status.RefID,
	}

	if !result.Verified {
		// PENDING and friends are legitimate negative outcomes, not faults.
		if isTerminalFailure(status.Status) {
			if err := s.repo.RecordOutcome(ctx, transactionUUID, domain.PaymentStatusFailed, status.RefID); err != nil {
				s.logger.Error("failed to record failed payment",
					zap.Error(err),
					zap.String("transaction_uuid", transactionUUID),
				)
			}
		}
		s.logger.Info("payment not verified",
			zap.String("transaction_uuid", transactionUUID),
			zap.String("product_id", pending.ProductID),
			zap.String("status", status.Status),
		)
		return result, nil
	}

	if err := s.repo.RecordOutcome(ctx, transactionUUID, domain.PaymentStatusCompleted, status.RefID); err != nil {
		// The gateway confirmed the money moved; a ledger write failure must
		// not unverify the payment.
		s.logger.Error("failed to record completed payment",
			zap.Error(err),
			zap.String("transaction_uuid", transactionUUID),
		)
	}

	s.logger.Info("payment verified",
		zap.String("transaction_uuid", transactionUUID),
		zap.String("product_id", pending.ProductID),
		zap.String("ref_id", status.RefID),
	)

	s.upgradePlan(ctx, userID, transactionUUID)

	return result, nil
}

// upgradePlan triggers the entitlement upgrade after a confirmed payment.
// Failures here never flip the verification result: the money moved.
func (s *Service) upgradePlan(ctx context.Context, userID, transactionUUID string) {
	if userID == "" {
		s.logger.Warn("verified payment without user identity, plan upgrade skipped",
			zap.String("transaction_uuid", transactionUUID),
		)
		return
	}

	if err := s.account.UpgradePlan(ctx, userID); err != nil {
		// Reconciliation item: payment confirmed but entitlement not granted.
		// Keep enough context to grant it out-of-band.
		s.logger.Error("plan upgrade failed after confirmed payment",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("transaction_uuid", transactionUUID),
		)
		return
	}

	s.logger.Info("plan upgrade triggered",
		zap.String("user_id", userID),
		zap.String("transaction_uuid", transactionUUID),
	)
}

// isTerminalFailure reports whether a non-COMPLETE gateway status is final.
// PENDING and AMBIGUOUS can still resolve; the rest cannot.
func isTerminalFailure(status string) bool {
	switch status {
	case domain.GatewayStatusNotFound,
		domain.GatewayStatusCanceled,
		domain.GatewayStatusFullRefund,
		domain.GatewayStatusPartialRefund:
		return true
	}
	return false
}
