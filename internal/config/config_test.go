package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "testsecret123456789012345678901234")
	t.Setenv("JWT_ALGORITHM", "hs256")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("ACCESS_TOKEN_TTL", "300")
	t.Setenv("REFRESH_TOKEN_TTL", "86400")
	t.Setenv("ACCOUNT_REGISTER_URL", "http://accounts:8000/v1/register")
	t.Setenv("ACCOUNT_LOGIN_URL", "http://accounts:8000/v1/login")
	t.Setenv("NOTIFICATION_CODE_URL", "http://notifications:8000/v1/code")
}

func TestLoadConfig(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "HS256", cfg.JWT.Algorithm)
	require.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenTTL)
	require.Equal(t, 24*time.Hour, cfg.JWT.RefreshTokenTTL)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, 1, cfg.Redis.DB)
	require.Equal(t, 455, cfg.Upstream.UnverifiedStatus)
	require.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	require.Empty(t, cfg.MongoDB.URI)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET_KEY")
	require.Contains(t, err.Error(), "REFRESH_TOKEN_TTL")
}

func TestLoadConfig_UnsupportedAlgorithm(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_ALGORITHM", "RS256")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "not supported")
}

func TestValidate_TTLOrdering(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "600")
	t.Setenv("REFRESH_TOKEN_TTL", "600")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "shorter than")
}

func TestValidate_RedisPort(t *testing.T) {
	for _, port := range []string{"abc", "0", "70000", "63 79"} {
		setRequired(t)
		t.Setenv("REDIS_PORT", port)

		_, err := LoadConfig()
		require.ErrorContains(t, err, "REDIS_PORT", "port %q", port)
	}
}

func TestValidate_RelativeURL(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCOUNT_LOGIN_URL", "/v1/login")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "ACCOUNT_LOGIN_URL")
}
