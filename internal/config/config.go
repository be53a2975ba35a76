// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Report formats understood by the riskcheck tool.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Config holds application configuration
type Config struct {
	LogLevel       string
	LogPretty      bool
	RiskPolicyFile string // Optional YAML policy; empty means the built-in limits
	ReportFormat   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("LOG_PRETTY", true),
		RiskPolicyFile: getEnv("RISK_POLICY_FILE", ""),
		ReportFormat:   getEnv("REPORT_FORMAT", FormatJSON),
	}

	if cfg.RiskPolicyFile != "" {
		absPath, err := filepath.Abs(cfg.RiskPolicyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve risk policy path: %w", err)
		}
		cfg.RiskPolicyFile = absPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration values are usable
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}

	switch c.ReportFormat {
	case FormatJSON, FormatMsgpack:
	default:
		return fmt.Errorf("invalid REPORT_FORMAT %q (want %s or %s)", c.ReportFormat, FormatJSON, FormatMsgpack)
	}

	if c.RiskPolicyFile != "" {
		if _, err := os.Stat(c.RiskPolicyFile); err != nil {
			return fmt.Errorf("risk policy file not accessible: %w", err)
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
