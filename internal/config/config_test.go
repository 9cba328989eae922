package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("ESEWA_MERCHANT_CODE", "EPAYTEST")
	t.Setenv("ESEWA_SUCCESS_URL", "https://app.example.com/payment/success")
	t.Setenv("ESEWA_FAILURE_URL", "https://app.example.com/payment/failure")
	t.Setenv("ACCOUNT_BASE_URL", "https://account.example.com")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "rc", cfg.Esewa.Environment)
	assert.Equal(t, 30, cfg.Esewa.Timeout)
	assert.Equal(t, "env", cfg.Secrets.Backend)
	assert.Equal(t, "ESEWA_SECRET_KEY", cfg.Secrets.SecretPath)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("ESEWA_ENVIRONMENT", "production")
	t.Setenv("SECRETS_BACKEND", "vault")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Esewa.Environment)
	assert.Equal(t, "vault", cfg.Secrets.Backend)
	assert.True(t, cfg.Logger.Development)
}

func TestLoadFromEnv_RequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"db password", "DB_PASSWORD"},
		{"merchant code", "ESEWA_MERCHANT_CODE"},
		{"success url", "ESEWA_SUCCESS_URL"},
		{"failure url", "ESEWA_FAILURE_URL"},
		{"account base url", "ACCOUNT_BASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.unset)
		})
	}
}

func TestLoadFromEnv_RejectsUnknownEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ESEWA_ENVIRONMENT", "staging")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ESEWA_ENVIRONMENT")
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "svc",
		Password: "pw",
		Database: "payments",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=svc password=pw dbname=payments sslmode=require",
		db.ConnectionString(),
	)
}
