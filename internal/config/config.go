// Package config provides configuration management for the patchbay service.
package config

import (
	"fmt"
	"os"
)

// Config holds the configuration for the service
type Config struct {
	Port        string
	DatabaseURL string

	// Transformer settings
	PackageBaseURL string
	AliasPrefix    string
	Entry          string

	TelemetryEnabled bool
	OTLPEndpoint     string
}

// Load loads configuration from environment variables
func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PackageBaseURL:   getEnv("PACKAGE_BASE_URL", "https://esm.sh/"),
		AliasPrefix:      getEnv("ALIAS_PREFIX", "@"),
		Entry:            getEnv("ENTRY_PATH", "/App"),
		TelemetryEnabled: os.Getenv("TELEMETRY_ENABLED") == "true",
		OTLPEndpoint:     os.Getenv("OTLP_ENDPOINT"),
	}
}

// Validate checks if the configuration is coherent. Projects are held in
// memory when DATABASE_URL is unset, so nothing is strictly required
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("missing required environment variable: PORT")
	}
	if c.TelemetryEnabled && c.OTLPEndpoint == "" {
		return fmt.Errorf("missing required environment variable: OTLP_ENDPOINT (required when TELEMETRY_ENABLED=true)")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
