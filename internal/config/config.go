package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Esewa    EsewaConfig
	Account  AccountConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// EsewaConfig holds eSewa ePay gateway configuration
type EsewaConfig struct {
	MerchantCode string // Product code issued by eSewa (e.g., EPAYTEST)
	SecretKey    string // HMAC secret; may be resolved via SecretsConfig instead
	SuccessURL   string // Frontend page eSewa redirects to on success
	FailureURL   string // Frontend page eSewa redirects to on failure/cancel
	Environment  string // "rc" (test) or "production"
	Timeout      int    // Status check timeout in seconds (default: 30)
}

// AccountConfig holds the account service used for plan upgrades
type AccountConfig struct {
	BaseURL string
	Timeout int // Request timeout in seconds (default: 15)
}

// SecretsConfig selects where the eSewa secret key is read from
type SecretsConfig struct {
	Backend        string // env, aws, or vault
	SecretPath     string // env var name, AWS secret id, or Vault path
	AWSRegion      string
	VaultAddress   string
	VaultToken     string
	VaultMountPath string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "payment_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Esewa: EsewaConfig{
			MerchantCode: getEnv("ESEWA_MERCHANT_CODE", ""),
			SecretKey:    getEnv("ESEWA_SECRET_KEY", ""),
			SuccessURL:   getEnv("ESEWA_SUCCESS_URL", ""),
			FailureURL:   getEnv("ESEWA_FAILURE_URL", ""),
			Environment:  getEnv("ESEWA_ENVIRONMENT", "rc"),
			Timeout:      getEnvAsInt("ESEWA_TIMEOUT", 30),
		},
		Account: AccountConfig{
			BaseURL: getEnv("ACCOUNT_BASE_URL", ""),
			Timeout: getEnvAsInt("ACCOUNT_TIMEOUT", 15),
		},
		Secrets: SecretsConfig{
			Backend:        getEnv("SECRETS_BACKEND", "env"),
			SecretPath:     getEnv("SECRETS_PATH", "ESEWA_SECRET_KEY"),
			AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
			VaultAddress:   getEnv("VAULT_ADDR", "http://localhost:8200"),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultMountPath: getEnv("VAULT_MOUNT_PATH", "secret"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Esewa.MerchantCode == "" {
		return nil, fmt.Errorf("ESEWA_MERCHANT_CODE is required")
	}
	if cfg.Esewa.SuccessURL == "" {
		return nil, fmt.Errorf("ESEWA_SUCCESS_URL is required")
	}
	if cfg.Esewa.FailureURL == "" {
		return nil, fmt.Errorf("ESEWA_FAILURE_URL is required")
	}
	if cfg.Account.BaseURL == "" {
		return nil, fmt.Errorf("ACCOUNT_BASE_URL is required")
	}
	if cfg.Esewa.Environment != "rc" && cfg.Esewa.Environment != "production" {
		return nil, fmt.Errorf("ESEWA_ENVIRONMENT must be rc or production, got %q", cfg.Esewa.Environment)
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
