// Package config has the configuration file for the app
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port     string
	Address  string
	Env      string
	LogLevel string
	LogDir   string

	// Upstream model API
	LLMAPIURL           string
	LLMAPIKey           string
	LLMModel            string
	LLMMaxTokens        int
	LLMTimeoutSeconds   int // full check-interaction flow
	QuickTimeoutSeconds int // quick flow
	SearchDomains       []string

	// Cache and rate limiting
	CacheBackend       string // "memory" or "redis"
	RedisAddr          string
	CacheTTLHours      int
	RateLimitRequests  int
	RateLimitWindowSec int

	// Directory data files
	CatalogFile    string
	PharmaciesFile string

	// Request size limits
	MaxRequestBody int64 // Maximum request body size in bytes
	MaxHeaderSize  int64 // Maximum header size in bytes
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnvWithDefault("PORT", "8000"),
		Address:  getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:      getEnvWithDefault("ENV", "dev"),
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:   getEnvWithDefault("LOG_DIR", "logs"),

		LLMAPIURL:           getEnvWithDefault("LLM_API_URL", "https://api.perplexity.ai/chat/completions"),
		LLMAPIKey:           os.Getenv("LLM_API_KEY"),
		LLMModel:            getEnvWithDefault("LLM_MODEL", "sonar"),
		LLMMaxTokens:        getIntEnvWithDefault("LLM_MAX_TOKENS", 1024),
		LLMTimeoutSeconds:   getIntEnvWithDefault("LLM_TIMEOUT_SECONDS", 18),
		QuickTimeoutSeconds: getIntEnvWithDefault("LLM_QUICK_TIMEOUT_SECONDS", 12),
		SearchDomains:       getCSVEnvWithDefault("SEARCH_DOMAINS", []string{"ansm.sante.fr", "vidal.fr", "base-donnees-publique.medicaments.gouv.fr"}),

		CacheBackend:       getEnvWithDefault("CACHE_BACKEND", "memory"),
		RedisAddr:          getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		CacheTTLHours:      getIntEnvWithDefault("CACHE_TTL_HOURS", 24),
		RateLimitRequests:  getIntEnvWithDefault("RATE_LIMIT_REQUESTS", 20),
		RateLimitWindowSec: getIntEnvWithDefault("RATE_LIMIT_WINDOW_SECONDS", 60),

		CatalogFile:    getEnvWithDefault("CATALOG_FILE", "data/catalog.json"),
		PharmaciesFile: getEnvWithDefault("PHARMACIES_FILE", "data/pharmacies.json"),

		MaxRequestBody: getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
		MaxHeaderSize:  getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),  // 1MB default
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the configured log level to its slog value.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if cfg.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}

	if err := validatePositiveInt(cfg.LLMTimeoutSeconds, 120, "LLM_TIMEOUT_SECONDS"); err != nil {
		return err
	}

	if err := validatePositiveInt(cfg.QuickTimeoutSeconds, 120, "LLM_QUICK_TIMEOUT_SECONDS"); err != nil {
		return err
	}

	if cfg.QuickTimeoutSeconds > cfg.LLMTimeoutSeconds {
		return fmt.Errorf("LLM_QUICK_TIMEOUT_SECONDS must not exceed LLM_TIMEOUT_SECONDS")
	}

	if err := validatePositiveInt(cfg.CacheTTLHours, 24*30, "CACHE_TTL_HOURS"); err != nil {
		return err
	}

	if err := validatePositiveInt(cfg.RateLimitRequests, 10000, "RATE_LIMIT_REQUESTS"); err != nil {
		return err
	}

	if err := validatePositiveInt(cfg.RateLimitWindowSec, 3600, "RATE_LIMIT_WINDOW_SECONDS"); err != nil {
		return err
	}

	if err := validateCacheBackend(cfg.CacheBackend); err != nil {
		return err
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateCacheBackend validates the CACHE_BACKEND environment variable
func validateCacheBackend(backend string) error {
	switch strings.ToLower(backend) {
	case "memory", "redis":
		return nil
	}
	return fmt.Errorf("CACHE_BACKEND must be 'memory' or 'redis', got: %s", backend)
}

// validatePositiveInt validates an integer setting against its upper bound
func validatePositiveInt(value, max int, configName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, value)
	}
	if value > max {
		return fmt.Errorf("%s is too large (max %d), got: %d", configName, max, value)
	}
	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getCSVEnvWithDefault gets a comma-separated environment variable
func getCSVEnvWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
