package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/logger"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	// HTTP
	HTTPAddr string

	// Database
	DatabaseDriver string
	DatabaseDSN    string

	// GIB portal defaults, overridden per business by the settings row
	GIBUsername            string
	GIBPassword            string
	GIBTestMode            bool
	GIBPortalURL           string
	GIBCertificatePath     string
	GIBCertificatePassword string
	GIBTimeout             time.Duration
	GIBMaxRetries          int

	// Assembly service
	DispatchWorkers    int
	DraftRetentionDays int

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from the environment. Callers load any
// .env file beforehand.
func Load() (*Config, error) {
	config := &Config{
		HTTPAddr:               getEnv("EFATURA_HTTP_ADDR", ":8080"),
		DatabaseDriver:         getEnv("EFATURA_DATABASE_DRIVER", DriverSQLite),
		DatabaseDSN:            getEnv("EFATURA_DATABASE_DSN", "efatura.db"),
		GIBUsername:            getEnv("GIB_USERNAME", ""),
		GIBPassword:            getEnv("GIB_PASSWORD", ""),
		GIBPortalURL:           getEnv("GIB_PORTAL_URL", ""),
		GIBCertificatePath:     getEnv("GIB_CERTIFICATE_PATH", ""),
		GIBCertificatePassword: getEnv("GIB_CERTIFICATE_PASSWORD", ""),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:          getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:              getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if config.GIBTestMode, err = getEnvBool("GIB_TEST_MODE", true); err != nil {
		return nil, err
	}
	if config.GIBTimeout, err = getEnvDuration("GIB_TIMEOUT", gib.DefaultTimeout); err != nil {
		return nil, err
	}
	if config.GIBMaxRetries, err = getEnvInt("GIB_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if config.DispatchWorkers, err = getEnvInt("EFATURA_DISPATCH_WORKERS", 2); err != nil {
		return nil, err
	}
	if config.DraftRetentionDays, err = getEnvInt("EFATURA_DRAFT_RETENTION_DAYS", 7); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("EFATURA_DATABASE_DSN is required for driver %s", c.DatabaseDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("EFATURA_DATABASE_DRIVER must be one of postgres, sqlite, memory (got %q)", c.DatabaseDriver)
	}
	if c.GIBUsername != "" && c.GIBPassword == "" {
		return fmt.Errorf("GIB_PASSWORD is required when GIB_USERNAME is set")
	}
	if c.GIBTimeout <= 0 {
		return fmt.Errorf("GIB_TIMEOUT must be positive")
	}
	if c.GIBMaxRetries < 1 {
		return fmt.Errorf("GIB_MAX_RETRIES must be at least 1")
	}
	if c.DispatchWorkers < 1 {
		return fmt.Errorf("EFATURA_DISPATCH_WORKERS must be at least 1")
	}
	if c.DraftRetentionDays < 1 {
		return fmt.Errorf("EFATURA_DRAFT_RETENTION_DAYS must be at least 1")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// PortalConfig returns the process-wide portal client configuration
func (c *Config) PortalConfig() gib.Config {
	return gib.Config{
		Username:            c.GIBUsername,
		Password:            c.GIBPassword,
		TestMode:            c.GIBTestMode,
		PortalURL:           c.GIBPortalURL,
		CertificatePath:     c.GIBCertificatePath,
		CertificatePassword: c.GIBCertificatePassword,
		Timeout:             c.GIBTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}
