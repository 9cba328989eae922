package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks the lifecycle of a checkout attempt in the local ledger
type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Transaction states reported by the eSewa status-check API
// Only COMPLETE means the money moved.
const (
	GatewayStatusComplete      = "COMPLETE"
	GatewayStatusPending       = "PENDING"
	GatewayStatusAmbiguous     = "AMBIGUOUS"
	GatewayStatusNotFound      = "NOT_FOUND"
	GatewayStatusCanceled      = "CANCELED"
	GatewayStatusFullRefund    = "FULL_REFUND"
	GatewayStatusPartialRefund = "PARTIAL_REFUND"
)

// SignedFieldNames is the fixed signed-field subset for ePay-v2 requests.
// The gateway recomputes the signature over exactly these fields in exactly
// this order.
const SignedFieldNames = "total_amount,transaction_uuid,product_code"

// PaymentRequest is the full field set posted to the eSewa checkout form.
// The gateway expects every value as a string-typed form field, including the
// zero tax/service/delivery charges.
type PaymentRequest struct {
	Amount                string
	TaxAmount             string
	ProductServiceCharge  string
	ProductDeliveryCharge string
	TotalAmount           string
	TransactionUUID       string
	ProductCode           string
	SuccessURL            string
	FailureURL            string
	SignedFieldNames      string
	Signature             string
}

// FormFields returns the request keyed by eSewa wire field names
func (r *PaymentRequest) FormFields() map[string]string {
	return map[string]string{
		"amount":                  r.Amount,
		"tax_amount":              r.TaxAmount,
		"product_service_charge":  r.ProductServiceCharge,
		"product_delivery_charge": r.ProductDeliveryCharge,
		"total_amount":            r.TotalAmount,
		"transaction_uuid":        r.TransactionUUID,
		"product_code":            r.ProductCode,
		"success_url":             r.SuccessURL,
		"failure_url":             r.FailureURL,
		"signed_field_names":      r.SignedFieldNames,
		"signature":               r.Signature,
	}
}

// Receipt is the decoded redirect envelope from eSewa.
// Untrusted until the signature check passes.
type Receipt map[string]interface{}

// Field returns the named receipt field as a string. eSewa documents string
// values but numbers have shown up in the wild; both are accepted.
func (r Receipt) Field(name string) string {
	return FieldString(r[name])
}

func (r Receipt) SignedFieldNames() string { return r.Field("signed_field_names") }
func (r Receipt) Signature() string        { return r.Field("signature") }
func (r Receipt) TransactionUUID() string  { return r.Field("transaction_uuid") }
func (r Receipt) TotalAmount() string      { return r.Field("total_amount") }

// FieldString converts a decoded JSON value to its wire string form.
// Numbers are formatted without a trailing ".0" so that "200" and 200 produce
// the same signing string.
func FieldString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// VerificationResult is the service's definitive answer for one receipt.
// Ambiguous or partial states never surface as Verified=true.
type VerificationResult struct {
	Verified        bool
	Status          string
	TransactionUUID string
	TotalAmount     string
	RefID           string
}

// PendingPayment is the ledger row created at initiation time. It is the only
// local record tying a transaction UUID to a checkout this service issued.
type PendingPayment struct {
	ID              string
	TransactionUUID string
	ProductID       string
	Amount          decimal.Decimal
	Status          PaymentStatus
	RefID           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
