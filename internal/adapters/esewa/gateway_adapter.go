package esewa

import (
	"context"
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lekhsewa/payment-service/internal/adapters/ports"
	"github.com/lekhsewa/payment-service/internal/domain"
	apperrors "github.com/lekhsewa/payment-service/pkg/errors"
	"github.com/lekhsewa/payment-service/pkg/observability"
	"go.uber.org/zap"
)

// Config contains the eSewa ePay-v2 gateway settings
type Config struct {
	// Merchant/product code assigned by eSewa (EPAYTEST in the sandbox)
	MerchantCode string

	// Shared HMAC secret. Never logged, never echoed in error responses.
	SecretKey string

	// Absolute callback URLs the gateway redirects back to after processing
	SuccessURL string
	FailureURL string

	// Hosted checkout form endpoint
	FormURL string

	// Base URL of the transaction-status API (host only, path is fixed)
	StatusBaseURL string
}

// DefaultConfig returns the gateway endpoints for the given environment.
// "production" routes to the production hosts, anything else to the rc sandbox.
func DefaultConfig(environment string) *Config {
	if environment == "production" {
		return &Config{
			FormURL:       "https://epay.esewa.com.np/api/epay/main/v2/form",
			StatusBaseURL: "https://esewa.com.np",
		}
	}
	return &Config{
		FormURL:       "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
		StatusBaseURL: "https://rc.esewa.com.np",
	}
}

// gatewayAdapter implements the EsewaGateway port
type gatewayAdapter struct {
	config     *Config
	httpClient ports.HTTPClient
	logger     *zap.Logger
}

// NewGatewayAdapter creates a new eSewa gateway adapter
func NewGatewayAdapter(config *Config, httpClient ports.HTTPClient, logger *zap.Logger) (ports.EsewaGateway, error) {
	switch {
	case config.MerchantCode == "":
		return nil, apperrors.New("ESEWA_CONFIG", "merchant code is required", apperrors.CategoryConfiguration)
	case config.SecretKey == "":
		return nil, apperrors.New("ESEWA_CONFIG", "secret key is required", apperrors.CategoryConfiguration)
	case config.SuccessURL == "" || config.FailureURL == "":
		return nil, apperrors.New("ESEWA_CONFIG", "success and failure URLs are required", apperrors.CategoryConfiguration)
	case config.FormURL == "" || config.StatusBaseURL == "":
		return nil, apperrors.New("ESEWA_CONFIG", "gateway endpoints are required", apperrors.CategoryConfiguration)
	}

	return &gatewayAdapter{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CheckoutFormURL returns the hosted checkout page for the configured environment
func (a *gatewayAdapter) CheckoutFormURL() string {
	return a.config.FormURL
}

// BuildPaymentRequest constructs and signs the full eleven-field form set for
// one checkout attempt. Tax, service and delivery charges are always "0" in
// this system, so total_amount equals amount.
func (a *gatewayAdapter) BuildPaymentRequest(totalAmount, transactionUUID string) (*domain.PaymentRequest, error) {
	// The success URL carries the transaction UUID so the frontend can
	// correlate the later redirect with this attempt.
	successURL := fmt.Sprintf("%s?transaction_uuid=%s", a.config.SuccessURL, url.QueryEscape(transactionUUID))

	signature, err := Sign([]Field{
		{Name: "total_amount", Value: totalAmount},
		{Name: "transaction_uuid", Value: transactionUUID},
		{Name: "product_code", Value: a.config.MerchantCode},
	}, a.config.SecretKey)
	if err != nil {
		return nil, err
	}

	a.logger.Info("built eSewa payment request",
		zap.String("transaction_uuid", transactionUUID),
		zap.String("total_amount", totalAmount),
	)

	return &domain.PaymentRequest{
		Amount:                totalAmount,
		TaxAmount:             "0",
		ProductServiceCharge:  "0",
		ProductDeliveryCharge: "0",
		TotalAmount:           totalAmount,
		TransactionUUID:       transactionUUID,
		ProductCode:           a.config.MerchantCode,
		SuccessURL:            successURL,
		FailureURL:            a.config.FailureURL,
		SignedFieldNames:      domain.SignedFieldNames,
		Signature:             signature,
	}, nil
}

// DecodeReceipt decodes the base64 envelope from the gateway redirect
func (a *gatewayAdapter) DecodeReceipt(data string) (domain.Receipt, error) {
	if strings.TrimSpace(data) == "" {
		return nil, apperrors.New("MISSING_DATA", "missing data parameter from gateway redirect", apperrors.CategoryDecode)
	}

	raw, err := decodeBase64Flexible(data)
	if err != nil {
		return nil, apperrors.New("BAD_BASE64", "data parameter is not valid base64", apperrors.CategoryDecode)
	}

	var receipt domain.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		a.logger.Warn("gateway redirect decoded to non-JSON",
			zap.ByteString("raw", raw),
		)
		return nil, apperrors.New("BAD_JSON", "decoded data is not valid JSON", apperrors.CategoryDecode)
	}

	return receipt, nil
}

// decodeBase64Flexible accepts the standard and URL-safe alphabets and
// restores stripped padding. The gateway has been seen sending both.
func decodeBase64Flexible(s string) ([]byte, error) {
	normalized := strings.ReplaceAll(strings.ReplaceAll(s, "-", "+"), "_", "/")
	if rem := len(normalized) % 4; rem != 0 {
		normalized += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(normalized)
}

// VerifyReceiptSignature rebuilds the signing string from signed_field_names
// in the given order and compares the recomputed HMAC against the received
// signature in constant time. This is the primary forgery defense.
func (a *gatewayAdapter) VerifyReceiptSignature(receipt domain.Receipt) error {
	signedNames := receipt.SignedFieldNames()
	received := receipt.Signature()
	if signedNames == "" || received == "" {
		return apperrors.New("MALFORMED_RECEIPT", "missing signed_field_names or signature in decoded data", apperrors.CategoryMalformedReceipt)
	}

	names := strings.Split(signedNames, ",")
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		fields = append(fields, Field{Name: name, Value: receipt.Field(name)})
	}

	expected, err := Sign(fields, a.config.SecretKey)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(expected), []byte(received)) {
		// Security-relevant: keep the computed and received signatures for
		// incident review. The secret itself is never logged.
		a.logger.Warn("receipt signature mismatch",
			zap.String("transaction_uuid", receipt.TransactionUUID()),
			zap.String("signing_string", SigningString(fields)),
			zap.String("expected_signature", expected),
			zap.String("received_signature", received),
		)
		return apperrors.New("SIGNATURE_MISMATCH", "signature mismatch", apperrors.CategorySignatureMismatch)
	}

	return nil
}

// CheckStatus queries the gateway's transaction-status API
func (a *gatewayAdapter) CheckStatus(ctx context.Context, totalAmount, transactionUUID string) (*ports.StatusResult, error) {
	u, err := url.Parse(a.config.StatusBaseURL + "/api/epay/transaction/status/")
	if err != nil {
		return nil, fmt.Errorf("parse status URL: %w", err)
	}
	q := u.Query()
	q.Set("product_code", a.config.MerchantCode)
	q.Set("total_amount", totalAmount)
	q.Set("transaction_uuid", transactionUUID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	observability.ObserveStatusCheckDuration(time.Since(start))
	if err != nil {
		a.logger.Error("status check request failed",
			zap.Error(err),
			zap.String("transaction_uuid", transactionUUID),
		)
		return nil, apperrors.New("STATUS_CHECK_UNREACHABLE", "status check request failed", apperrors.CategoryStatusCheckFailed).
			WithDetail("cause", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.New("STATUS_CHECK_READ", "failed to read status check response", apperrors.CategoryStatusCheckFailed).
			WithDetail("cause", err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.logger.Error("status check returned non-2xx",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", body),
			zap.String("transaction_uuid", transactionUUID),
		)
		return nil, apperrors.New("STATUS_CHECK_HTTP", fmt.Sprintf("status check returned HTTP %d", resp.StatusCode), apperrors.CategoryStatusCheckFailed)
	}

	var out struct {
		ProductCode     string      `json:"product_code"`
		TransactionUUID string      `json:"transaction_uuid"`
		TotalAmount     interface{} `json:"total_amount"`
		Status          string      `json:"status"`
		RefID           string      `json:"ref_id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		a.logger.Error("status check returned non-JSON body",
			zap.ByteString("body", body),
		)
		return nil, apperrors.New("STATUS_CHECK_BODY", "status check returned non-JSON body", apperrors.CategoryStatusCheckFailed)
	}

	return &ports.StatusResult{
		ProductCode:     out.ProductCode,
		TransactionUUID: out.TransactionUUID,
		TotalAmount:     domain.FieldString(out.TotalAmount),
		Status:          strings.ToUpper(strings.TrimSpace(out.Status)),
		RefID:           out.RefID,
	}, nil
}
