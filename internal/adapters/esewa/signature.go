package esewa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	apperrors "github.com/lekhsewa/payment-service/pkg/errors"
)

// Field is one name=value pair of the canonical signing string
type Field struct {
	Name  string
	Value string
}

// SigningString builds the canonical comma-joined signing string:
// "name1=value1,name2=value2,...". No spaces, field order preserved exactly.
// The gateway recomputes over the same order, so any reordering breaks the
// signature.
func SigningString(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Name+"="+f.Value)
	}
	return strings.Join(parts, ",")
}

// Sign computes the standard-base64 HMAC-SHA256 signature over the canonical
// signing string. An empty secret is a configuration fault, not a runtime
// input error.
func Sign(fields []Field, secret string) (string, error) {
	if secret == "" {
		return "", apperrors.New("EMPTY_SECRET", "signing secret is not configured", apperrors.CategoryConfiguration)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(SigningString(fields)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// VerifySignature recomputes the signature for fields and compares it against
// received in constant time
func VerifySignature(fields []Field, secret, received string) (bool, error) {
	expected, err := Sign(fields, secret)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(received)), nil
}
