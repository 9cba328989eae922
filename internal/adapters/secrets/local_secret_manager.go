package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/lekhsewa/payment-service/internal/adapters/ports"
	"go.uber.org/zap"
)

// envSecretManager implements SecretManagerAdapter from process environment
// variables. For development and simple deployments; use AWS Secrets Manager
// or Vault in production.
type envSecretManager struct {
	logger *zap.Logger
}

// NewEnvSecretManager creates a secret manager backed by environment variables
func NewEnvSecretManager(logger *zap.Logger) ports.SecretManagerAdapter {
	return &envSecretManager{logger: logger}
}

// GetSecret reads the environment variable named by path
func (m *envSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	value := os.Getenv(path)
	if value == "" {
		return nil, fmt.Errorf("secret not set: %s", path)
	}

	m.logger.Debug("secret read from environment",
		zap.String("path", path),
	)

	return &ports.Secret{
		Value:   value,
		Version: "v1",
	}, nil
}
