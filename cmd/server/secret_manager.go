package main

import (
	"context"
	"fmt"

	"github.com/lekhsewa/payment-service/internal/adapters/ports"
	"github.com/lekhsewa/payment-service/internal/adapters/secrets"
	"github.com/lekhsewa/payment-service/internal/config"
	"go.uber.org/zap"
)

// resolveEsewaSecret fetches the HMAC signing secret through the configured
// backend. Supports:
//   - env (default): reads the secret from the env var named by SECRETS_PATH
//   - aws: AWS Secrets Manager, secret id in SECRETS_PATH
//   - vault: HashiCorp Vault KV, path in SECRETS_PATH
func resolveEsewaSecret(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, error) {
	// An inline key short-circuits the backends. Local development only.
	if cfg.Esewa.SecretKey != "" && cfg.Secrets.Backend == "env" {
		return cfg.Esewa.SecretKey, nil
	}

	sm, err := initSecretManager(ctx, cfg, logger)
	if err != nil {
		return "", err
	}

	secret, err := sm.GetSecret(ctx, cfg.Secrets.SecretPath)
	if err != nil {
		return "", fmt.Errorf("fetch secret %q: %w", cfg.Secrets.SecretPath, err)
	}
	if secret.Value == "" {
		return "", fmt.Errorf("secret %q is empty", cfg.Secrets.SecretPath)
	}

	return secret.Value, nil
}

// initSecretManager initializes the secret backend named by SECRETS_BACKEND
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Secrets.Backend {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion)
		sm, err := secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize AWS Secrets Manager: %w", err)
		}
		logger.Info("AWS Secrets Manager initialized",
			zap.String("region", cfg.Secrets.AWSRegion),
		)
		return sm, nil

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress)
		vaultCfg.Token = cfg.Secrets.VaultToken
		vaultCfg.MountPath = cfg.Secrets.VaultMountPath
		sm, err := secrets.NewVaultAdapter(ctx, vaultCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize Vault: %w", err)
		}
		logger.Info("Vault secret backend initialized",
			zap.String("address", cfg.Secrets.VaultAddress),
			zap.String("mount_path", cfg.Secrets.VaultMountPath),
		)
		return sm, nil

	case "env":
		return secrets.NewEnvSecretManager(logger), nil

	default:
		return nil, fmt.Errorf("unknown secrets backend %q (want env, aws, or vault)", cfg.Secrets.Backend)
	}
}
