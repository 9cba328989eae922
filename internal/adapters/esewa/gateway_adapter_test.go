package esewa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lekhsewa/payment-service/internal/domain"
	apperrors "github.com/lekhsewa/payment-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "8gBm/:&EnhH.1/q"

func testConfig(statusBaseURL string) *Config {
	return &Config{
		MerchantCode:  "EPAYTEST",
		SecretKey:     testSecret,
		SuccessURL:    "https://app.example.com/payment/success",
		FailureURL:    "https://app.example.com/payment/failure",
		FormURL:       "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
		StatusBaseURL: statusBaseURL,
	}
}

func newTestAdapter(t *testing.T, statusBaseURL string) *gatewayAdapter {
	t.Helper()
	gw, err := NewGatewayAdapter(testConfig(statusBaseURL), &http.Client{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return gw.(*gatewayAdapter)
}

// encodeReceipt signs and base64-encodes a receipt the way the gateway does
// on redirect.
func encodeReceipt(t *testing.T, fields []Field, secret string) string {
	t.Helper()

	names := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		names = append(names, f.Name)
	}
	names = append(names, "signed_field_names")
	signedNames := strings.Join(names, ",")

	all := append(append([]Field{}, fields...), Field{Name: "signed_field_names", Value: signedNames})
	sig, err := Sign(all, secret)
	require.NoError(t, err)

	receipt := map[string]string{
		"signed_field_names": signedNames,
		"signature":          sig,
	}
	for _, f := range fields {
		receipt[f.Name] = f.Value
	}

	raw, err := json.Marshal(receipt)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func standardReceiptFields(transactionUUID string) []Field {
	return []Field{
		{Name: "transaction_code", Value: "000AWEO"},
		{Name: "status", Value: "COMPLETE"},
		{Name: "total_amount", Value: "1000.0"},
		{Name: "transaction_uuid", Value: transactionUUID},
		{Name: "product_code", Value: "EPAYTEST"},
	}
}

func TestNewGatewayAdapter_ValidatesConfig(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing merchant code", func(c *Config) { c.MerchantCode = "" }},
		{"missing secret key", func(c *Config) { c.SecretKey = "" }},
		{"missing success URL", func(c *Config) { c.SuccessURL = "" }},
		{"missing form URL", func(c *Config) { c.FormURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("https://rc.esewa.com.np")
			tt.mutate(cfg)

			_, err := NewGatewayAdapter(cfg, &http.Client{}, logger)
			require.Error(t, err)
			perr, ok := apperrors.AsPaymentError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CategoryConfiguration, perr.Category)
		})
	}
}

func TestDefaultConfig_Environments(t *testing.T) {
	rc := DefaultConfig("rc")
	assert.Equal(t, "https://rc-epay.esewa.com.np/api/epay/main/v2/form", rc.FormURL)
	assert.Equal(t, "https://rc.esewa.com.np", rc.StatusBaseURL)

	prod := DefaultConfig("production")
	assert.Equal(t, "https://epay.esewa.com.np/api/epay/main/v2/form", prod.FormURL)
	assert.Equal(t, "https://esewa.com.np", prod.StatusBaseURL)
}

func TestBuildPaymentRequest(t *testing.T) {
	adapter := newTestAdapter(t, "https://rc.esewa.com.np")

	req, err := adapter.BuildPaymentRequest("200", "b7c9a1f0-0000-0000-0000-000000000001")
	require.NoError(t, err)

	assert.Equal(t, "200", req.Amount)
	assert.Equal(t, "200", req.TotalAmount)
	assert.Equal(t, "0", req.TaxAmount)
	assert.Equal(t, "0", req.ProductServiceCharge)
	assert.Equal(t, "0", req.ProductDeliveryCharge)
	assert.Equal(t, "EPAYTEST", req.ProductCode)
	assert.Equal(t, domain.SignedFieldNames, req.SignedFieldNames)
	assert.Equal(t, "https://app.example.com/payment/success?transaction_uuid=b7c9a1f0-0000-0000-0000-000000000001", req.SuccessURL)
	assert.Equal(t, "https://app.example.com/payment/failure", req.FailureURL)

	// The signature must recompute from exactly the three signed fields
	want, err := Sign([]Field{
		{Name: "total_amount", Value: "200"},
		{Name: "transaction_uuid", Value: "b7c9a1f0-0000-0000-0000-000000000001"},
		{Name: "product_code", Value: "EPAYTEST"},
	}, testSecret)
	require.NoError(t, err)
	assert.Equal(t, want, req.Signature)

	fields := req.FormFields()
	assert.Len(t, fields, 11)
	assert.Equal(t, req.Signature, fields["signature"])
	assert.Equal(t, "total_amount,transaction_uuid,product_code", fields["signed_field_names"])
}

func TestDecodeReceipt_Variants(t *testing.T) {
	adapter := newTestAdapter(t, "https://rc.esewa.com.np")

	raw := []byte(`{"status":"COMPLETE","transaction_uuid":"abc"}`)

	variants := map[string]string{
		"standard":           base64.StdEncoding.EncodeToString(raw),
		"url_safe":           base64.URLEncoding.EncodeToString(raw),
		"standard_no_pad":    base64.RawStdEncoding.EncodeToString(raw),
		"url_safe_no_pad":    base64.RawURLEncoding.EncodeToString(raw),
	}

	for name, encoded := range variants {
		t.Run(name, func(t *testing.T) {
			receipt, err := adapter.DecodeReceipt(encoded)
			require.NoError(t, err)
			assert.Equal(t, "COMPLETE", receipt.Field("status"))
			assert.Equal(t, "abc", receipt.TransactionUUID())
		})
	}
}

func TestDecodeReceipt_Failures(t *testing.T) {
	adapter := newTestAdapter(t, "https://rc.esewa.com.np")

	tests := []struct {
		name     string
		data     string
		category apperrors.Category
	}{
		{"empty", "", apperrors.CategoryDecode},
		{"not base64", "!!!not-base64!!!", apperrors.CategoryDecode},
		{"base64 of non-json", base64.StdEncoding.EncodeToString([]byte("hello world")), apperrors.CategoryDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := adapter.DecodeReceipt(tt.data)
			require.Error(t, err)
			perr, ok := apperrors.AsPaymentError(err)
			require.True(t, ok)
			assert.Equal(t, tt.category, perr.Category)
			assert.True(t, perr.IsReceiptFailure())
		})
	}
}

func TestVerifyReceiptSignature_Valid(t *testing.T) {
	adapter := newTestAdapter(t, "https://rc.esewa.com.np")

	encoded := encodeReceipt(t, standardReceiptFields("uuid-1"), testSecret)
	receipt, err := adapter.DecodeReceipt(encoded)
	require.NoError(t, err)

	assert.NoError(t, adapter.VerifyReceiptSignature(receipt))
}

func TestVerifyReceiptSignature_Tampered(t *testing.T) {
	adapter := newTestAdapter(t, "https://rc.esewa.com.np")

	encoded := encodeReceipt(t, standardReceiptFields("uuid-1"), testSecret)
	receipt, err := adapter.DecodeReceipt(encoded)
	require.NoError(t, err)

	// Inflate the amount after signing
	receipt["total_amount"] = "99999.0"

	err = adapter.VerifyReceiptSignature(receipt)
	require.Error(t, err)
	perr, ok := apperrors.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CategorySignatureMismatch, perr.Category)
}

func TestVerifyReceiptSignature_WrongSecret(t *testing.T) {
	adapter := newTestAdapter(t, "https://rc.esewa.com.np")

	encoded := encodeReceipt(t, standardReceiptFields("uuid-1"), "attacker-secret")
	receipt, err := adapter.DecodeReceipt(encoded)
	require.NoError(t, err)

	err = adapter.VerifyReceiptSignature(receipt)
	require.Error(t, err)
	perr, ok := apperrors.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CategorySignatureMismatch, perr.Category)
}

func TestVerifyReceiptSignature_MissingSignatureFields(t *testing.T) {
	adapter := newTestAdapter(t, "https://rc.esewa.com.np")

	receipt := domain.Receipt{"status": "COMPLETE"}

	err := adapter.VerifyReceiptSignature(receipt)
	require.Error(t, err)
	perr, ok := apperrors.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CategoryMalformedReceipt, perr.Category)
}

func TestVerifyReceiptSignature_NumericJSONValues(t *testing.T) {
	adapter := newTestAdapter(t, "https://rc.esewa.com.np")

	// The gateway sometimes sends total_amount as a JSON number. The signing
	// string must use the same textual form the signer used.
	sig, err := Sign([]Field{
		{Name: "total_amount", Value: "1000"},
		{Name: "transaction_uuid", Value: "uuid-2"},
		{Name: "product_code", Value: "EPAYTEST"},
	}, testSecret)
	require.NoError(t, err)

	raw := []byte(`{"total_amount":1000,"transaction_uuid":"uuid-2","product_code":"EPAYTEST","signed_field_names":"total_amount,transaction_uuid,product_code","signature":"` + sig + `"}`)
	receipt, err := adapter.DecodeReceipt(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)

	assert.NoError(t, adapter.VerifyReceiptSignature(receipt))
}

func TestCheckStatus(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"product_code":     r.URL.Query().Get("product_code"),
			"total_amount":     r.URL.Query().Get("total_amount"),
			"transaction_uuid": r.URL.Query().Get("transaction_uuid"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"product_code":     "EPAYTEST",
			"transaction_uuid": "uuid-3",
			"total_amount":     1000.0,
			"status":           "COMPLETE",
			"ref_id":           "0001TX",
		})
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)

	result, err := adapter.CheckStatus(context.Background(), "1000", "uuid-3")
	require.NoError(t, err)

	assert.Equal(t, "EPAYTEST", gotQuery["product_code"])
	assert.Equal(t, "1000", gotQuery["total_amount"])
	assert.Equal(t, "uuid-3", gotQuery["transaction_uuid"])

	assert.Equal(t, domain.GatewayStatusComplete, result.Status)
	assert.Equal(t, "0001TX", result.RefID)
	assert.Equal(t, "1000", result.TotalAmount)
}

func TestCheckStatus_NormalizesStatusCase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":" pending ","transaction_uuid":"uuid-4"}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)

	result, err := adapter.CheckStatus(context.Background(), "100", "uuid-4")
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusPending, result.Status)
}

func TestCheckStatus_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)

	_, err := adapter.CheckStatus(context.Background(), "100", "uuid-5")
	require.Error(t, err)
	perr, ok := apperrors.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CategoryStatusCheckFailed, perr.Category)
}

func TestCheckStatus_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)

	_, err := adapter.CheckStatus(context.Background(), "100", "uuid-6")
	require.Error(t, err)
	perr, ok := apperrors.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CategoryStatusCheckFailed, perr.Category)
}

func TestCheckStatus_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	adapter := newTestAdapter(t, server.URL)

	_, err := adapter.CheckStatus(context.Background(), "100", "uuid-7")
	require.Error(t, err)
	perr, ok := apperrors.AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CategoryStatusCheckFailed, perr.Category)
}
