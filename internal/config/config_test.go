package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/pitchside")
	t.Setenv("IDENTITY_API_URL", "https://provider.example.com")
	t.Setenv("IDENTITY_APP_ID", "app-id")
	t.Setenv("IDENTITY_APP_SECRET", "app-secret")
	t.Setenv("IDENTITY_ISSUER", "https://provider.example.com")
	t.Setenv("IDENTITY_JWKS_URI", "https://provider.example.com/jwks")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://api.devnet.solana.com", cfg.SolanaRPCURL)
	require.Equal(t, "confirmed", cfg.SolanaCommitment)
	require.Equal(t, 30*time.Second, cfg.SolanaConfirmTimeout)
	require.Equal(t, []int{47, 87, 42}, cfg.SportsAllowedLeagues)
	require.Equal(t, 8080, cfg.Port)
	require.True(t, cfg.RateLimitEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOLANA_COMMITMENT", "finalized")
	t.Setenv("SOLANA_CONFIRM_TIMEOUT", "45s")
	t.Setenv("SPORTS_ALLOWED_LEAGUES", "1, 2,3")
	t.Setenv("PORT", "9000")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "finalized", cfg.SolanaCommitment)
	require.Equal(t, 45*time.Second, cfg.SolanaConfirmTimeout)
	require.Equal(t, []int{1, 2, 3}, cfg.SportsAllowedLeagues)
	require.Equal(t, 9000, cfg.Port)
	require.False(t, cfg.RateLimitEnabled)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestLoad_InvalidCommitmentRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOLANA_COMMITMENT", "hopeful")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "SOLANA_COMMITMENT")
}

func TestGetEnvIntList_MalformedEntriesSkipped(t *testing.T) {
	t.Setenv("TEST_LEAGUES", "47,banana,87")
	require.Equal(t, []int{47, 87}, getEnvIntList("TEST_LEAGUES", []int{1}))

	t.Setenv("TEST_LEAGUES", "banana")
	require.Equal(t, []int{1}, getEnvIntList("TEST_LEAGUES", []int{1}))
}
