package ports

import (
	"context"

	"github.com/lekhsewa/payment-service/internal/domain"
)

// CheckoutForm is a ready-to-post field set for the gateway's hosted checkout
// page. Field names, values and order are part of the wire contract; the
// gateway validates the signature over the same set.
type CheckoutForm struct {
	PostURL string
	Fields  map[string]string
}

// StatusResult is the authoritative transaction state reported by the
// gateway's status-check API.
type StatusResult struct {
	ProductCode     string
	TransactionUUID string
	TotalAmount     string
	Status          string
	RefID           string
}

// EsewaGateway is the port for the eSewa ePay-v2 wire contract
type EsewaGateway interface {
	// BuildPaymentRequest constructs and signs the form field set for one
	// checkout attempt
	BuildPaymentRequest(totalAmount, transactionUUID string) (*domain.PaymentRequest, error)

	// CheckoutFormURL returns the hosted checkout endpoint for the configured
	// environment
	CheckoutFormURL() string

	// DecodeReceipt decodes the base64 envelope carried on the gateway's
	// success redirect. Accepts standard and URL-safe alphabets.
	DecodeReceipt(data string) (domain.Receipt, error)

	// VerifyReceiptSignature recomputes the receipt signature from
	// signed_field_names and compares it in constant time against the
	// received one
	VerifyReceiptSignature(receipt domain.Receipt) error

	// CheckStatus queries the gateway's transaction-status API, the source of
	// truth for whether the payment completed
	CheckStatus(ctx context.Context, totalAmount, transactionUUID string) (*StatusResult, error)
}
