package ports

import "context"

// Secret is a retrieved secret with metadata
type Secret struct {
	Value    string            // The secret value (e.g., the eSewa HMAC key)
	Version  string            // Secret version identifier
	Metadata map[string]string // Additional backend metadata
}

// SecretManagerAdapter defines the port for retrieving deployment secrets.
// Supported backends: environment/file (development), AWS Secrets Manager,
// HashiCorp Vault. The implementation is responsible for authentication with
// the backend and for caching secrets appropriately.
//
// This service only reads secrets at startup; rotation and writes are owned
// by the deployment tooling.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name.
	// Path format depends on the backend:
	//   - env:   the environment variable name, e.g. "ESEWA_SECRET_KEY"
	//   - AWS:   "payment-service/esewa/secret-key" or a full ARN
	//   - Vault: KV path relative to the mount, e.g. "payment-service/esewa"
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
