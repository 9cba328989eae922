package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptAccessors(t *testing.T) {
	var receipt Receipt
	require.NoError(t, json.Unmarshal([]byte(`{
		"transaction_uuid": "uuid-1",
		"total_amount": "1000.0",
		"signed_field_names": "transaction_uuid,total_amount",
		"signature": "c2ln"
	}`), &receipt))

	assert.Equal(t, "uuid-1", receipt.TransactionUUID())
	assert.Equal(t, "1000.0", receipt.TotalAmount())
	assert.Equal(t, "transaction_uuid,total_amount", receipt.SignedFieldNames())
	assert.Equal(t, "c2ln", receipt.Signature())
	assert.Equal(t, "", receipt.Field("missing"))
}

func TestFieldString(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"string", "200", "200"},
		{"whole number", float64(200), "200"},
		{"decimal number", 55.5, "55.5"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"object", map[string]interface{}{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldString(tt.in))
		})
	}
}

func TestFormFields(t *testing.T) {
	req := &PaymentRequest{
		Amount:                "200",
		TaxAmount:             "0",
		ProductServiceCharge:  "0",
		ProductDeliveryCharge: "0",
		TotalAmount:           "200",
		TransactionUUID:       "uuid-1",
		ProductCode:           "EPAYTEST",
		SuccessURL:            "https://app.example.com/success",
		FailureURL:            "https://app.example.com/failure",
		SignedFieldNames:      SignedFieldNames,
		Signature:             "c2ln",
	}

	fields := req.FormFields()
	assert.Len(t, fields, 11)
	assert.Equal(t, "200", fields["amount"])
	assert.Equal(t, "total_amount,transaction_uuid,product_code", fields["signed_field_names"])
	assert.Equal(t, "c2ln", fields["signature"])
}
