package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	Store    string
	LogLevel string

	JWTSecret string
	JWTTTL    time.Duration

	// LockTimeout bounds how long a ledger mutation waits for the user row lock
	LockTimeout time.Duration

	CBRURL string

	ReconcileSchedule string
	ReconcileRepair   bool

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	AlertEmail   string
}

// NewConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "5000"),
		DBConn:            getEnv("DB_CONN", "host=localhost port=5432 user=postgres password=postgres dbname=finance_tracker sslmode=disable"),
		Store:             getEnv("STORE", StorePostgres),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		CBRURL:            getEnv("CBR_URL", "https://www.cbr.ru/scripts/XML_daily.asp"),
		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", "no-reply@finance-tracker.local"),
		AlertEmail:        getEnv("ALERT_EMAIL", ""),
	}

	var err error
	if cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.LockTimeout, err = time.ParseDuration(getEnv("LOCK_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("invalid LOCK_TIMEOUT: %w", err)
	}
	if cfg.ReconcileRepair, err = strconv.ParseBool(getEnv("RECONCILE_REPAIR", "false")); err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_REPAIR: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DBConn == "" {
			return fmt.Errorf("DB_CONN is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}

// MailEnabled reports whether SMTP settings are present
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
