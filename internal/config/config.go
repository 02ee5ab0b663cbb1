package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for both services
type Config struct {
	// Bank Ledger Service
	BankPort        string
	BankDatabaseURL string

	// Telecom Ledger Service
	TelecomPort        string
	TelecomDatabaseURL string

	// Remote telecom ledger as seen from the bank
	TelecomBaseURL string
	TelecomTimeout time.Duration

	// Settlement retry budget for indeterminate remote outcomes
	SettleMaxAttempts int
	SettleRetryDelay  time.Duration

	// Reconciliation worker
	ReconcileInterval time.Duration

	// Server
	CORSOrigins []string
	Env         string

	// Rate limiting on the settlement endpoint
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	telecomTimeout, err := time.ParseDuration(getEnv("TELECOM_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELECOM_TIMEOUT: %w", err)
	}
	settleRetryDelay, err := time.ParseDuration(getEnv("SETTLE_RETRY_DELAY", "200ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid SETTLE_RETRY_DELAY: %w", err)
	}
	reconcileInterval, err := time.ParseDuration(getEnv("RECONCILE_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_INTERVAL: %w", err)
	}

	cfg := &Config{
		BankPort:           getEnv("BANK_PORT", "8080"),
		BankDatabaseURL:    getEnv("BANK_DATABASE_URL", ""),
		TelecomPort:        getEnv("TELECOM_PORT", "8081"),
		TelecomDatabaseURL: getEnv("TELECOM_DATABASE_URL", ""),
		TelecomBaseURL:     getEnv("TELECOM_BASE_URL", "http://localhost:8081"),
		TelecomTimeout:     telecomTimeout,
		SettleMaxAttempts:  getEnvInt("SETTLE_MAX_ATTEMPTS", 3),
		SettleRetryDelay:   settleRetryDelay,
		ReconcileInterval:  reconcileInterval,
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),
	}

	return cfg, nil
}

// ValidateBank checks the settings the bank binary needs
func (c *Config) ValidateBank() error {
	if c.BankDatabaseURL == "" {
		return fmt.Errorf("BANK_DATABASE_URL is required")
	}
	if c.TelecomBaseURL == "" {
		return fmt.Errorf("TELECOM_BASE_URL is required")
	}
	if c.SettleMaxAttempts < 1 {
		return fmt.Errorf("SETTLE_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// ValidateTelecom checks the settings the telecom binary needs
func (c *Config) ValidateTelecom() error {
	if c.TelecomDatabaseURL == "" {
		return fmt.Errorf("TELECOM_DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
