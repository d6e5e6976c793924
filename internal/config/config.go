package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the TraceLens server.
type Config struct {
	Port      int
	Version   string
	Database  DatabaseConfig
	Anthropic AnthropicConfig
	Telemetry TelemetryConfig
}

type DatabaseConfig struct {
	// Path to the SQLite database file. Empty means the in-memory
	// store is used (local dev, tests).
	Path string
}

type AnthropicConfig struct {
	APIKey string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("TRACELENS_PORT", 8080),
		Version: envStr("TRACELENS_VERSION", "0.1.0"),
		Database: DatabaseConfig{
			Path: envStr("TRACELENS_DATABASE_PATH", ""),
		},
		Anthropic: AnthropicConfig{
			APIKey: envStr("ANTHROPIC_API_KEY", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "tracelens"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
