package payment

import (
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/lekhsewa/payment-service/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandleCheckoutPage(t *testing.T) {
	handler, svc := newTestHandler(t)

	svc.On("InitiatePayment", mock.Anything, "200", "pro-monthly").Return(sampleForm(), nil)

	req := httptest.NewRequest(http.MethodGet, "/payment/checkout?amount=200&product_id=pro-monthly", nil)
	rec := httptest.NewRecorder()

	handler.HandleCheckoutPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `action="https://rc-epay.esewa.com.np/api/epay/main/v2/form"`)
	assert.Contains(t, body, `name="transaction_uuid" value="uuid-1"`)
	assert.Contains(t, body, `name="signature" value="c2ln"`)
	assert.Contains(t, body, `name="signed_field_names" value="total_amount,transaction_uuid,product_code"`)
	// The page posts itself without user interaction
	assert.Contains(t, body, `document.getElementById("esewa-checkout").submit()`)
}

func TestHandleCheckoutPage_MissingParams(t *testing.T) {
	handler, svc := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/payment/checkout?amount=200", nil)
	rec := httptest.NewRecorder()

	handler.HandleCheckoutPage(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "amount and product_id are required")
	svc.AssertNotCalled(t, "InitiatePayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCheckoutPage_InvalidAmount(t *testing.T) {
	handler, svc := newTestHandler(t)

	svc.On("InitiatePayment", mock.Anything, "abc", "pro-monthly").
		Return(nil, apperrors.New("BAD_AMOUNT", "amount must be a positive number", apperrors.CategoryInvalidRequest))

	req := httptest.NewRequest(http.MethodGet, "/payment/checkout?amount=abc&product_id=pro-monthly", nil)
	rec := httptest.NewRecorder()

	handler.HandleCheckoutPage(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "amount must be a positive number")
}

func TestHandleCheckoutPage_IncompleteFormAborts(t *testing.T) {
	handler, svc := newTestHandler(t)

	form := sampleForm()
	delete(form.Fields, "signature")
	svc.On("InitiatePayment", mock.Anything, "200", "pro-monthly").Return(form, nil)

	req := httptest.NewRequest(http.MethodGet, "/payment/checkout?amount=200&product_id=pro-monthly", nil)
	rec := httptest.NewRecorder()

	handler.HandleCheckoutPage(rec, req)

	// An unsigned form must never reach the gateway
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "esewa-checkout")
}
