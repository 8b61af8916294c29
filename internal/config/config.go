package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds infrastructure-level configuration
type Config struct {
	// Database
	PostgresDSN string

	// Identity provider (custodial auth + embedded wallets)
	IdentityAPIURL    string
	IdentityAppID     string
	IdentityAppSecret string
	IdentityIssuer    string
	IdentityJWKSURI   string

	// Solana
	SolanaRPCURL         string
	SolanaCommitment     string // processed, confirmed, or finalized
	SolanaConfirmTimeout time.Duration

	// Sports-data collaborator
	SportsAPIURL         string
	SportsAPIKey         string
	SportsAllowedLeagues []int

	// Rate limiting
	RateLimitRPS     int
	RateLimitBurst   int
	RateLimitEnabled bool

	// Server
	Port int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		PostgresDSN:          getEnv("POSTGRES_DSN", ""),
		IdentityAPIURL:       getEnv("IDENTITY_API_URL", ""),
		IdentityAppID:        getEnv("IDENTITY_APP_ID", ""),
		IdentityAppSecret:    getEnv("IDENTITY_APP_SECRET", ""),
		IdentityIssuer:       getEnv("IDENTITY_ISSUER", ""),
		IdentityJWKSURI:      getEnv("IDENTITY_JWKS_URI", ""),
		SolanaRPCURL:         getEnv("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
		SolanaCommitment:     getEnv("SOLANA_COMMITMENT", "confirmed"),
		SolanaConfirmTimeout: getEnvDuration("SOLANA_CONFIRM_TIMEOUT", 30*time.Second),
		SportsAPIURL:         getEnv("SPORTS_API_URL", ""),
		SportsAPIKey:         getEnv("SPORTS_API_KEY", ""),
		SportsAllowedLeagues: getEnvIntList("SPORTS_ALLOWED_LEAGUES", []int{47, 87, 42}),
		RateLimitRPS:         getEnvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst:       getEnvInt("RATE_LIMIT_BURST", 40),
		RateLimitEnabled:     getEnvBool("RATE_LIMIT_ENABLED", true),
		Port:                 getEnvInt("PORT", 8080),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}

	if c.IdentityAPIURL == "" {
		return fmt.Errorf("IDENTITY_API_URL is required")
	}

	if c.IdentityAppID == "" || c.IdentityAppSecret == "" {
		return fmt.Errorf("IDENTITY_APP_ID and IDENTITY_APP_SECRET are required")
	}

	if c.IdentityIssuer == "" || c.IdentityJWKSURI == "" {
		return fmt.Errorf("IDENTITY_ISSUER and IDENTITY_JWKS_URI are required")
	}

	switch c.SolanaCommitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("SOLANA_COMMITMENT must be processed, confirmed, or finalized, got: %s", c.SolanaCommitment)
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
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

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	valueStr = strings.ToLower(valueStr)
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvIntList gets a comma-separated integer list with a default value.
// A list that fails to parse entirely falls back to the default.
func getEnvIntList(key string, defaultValue []int) []int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
