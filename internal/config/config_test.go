package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	for _, k := range []string{"KAFKA_BROKERS", "HTTP_PORT", "AUTH_MODE", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL", "WORKER_CONCURRENCY"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, AuthModeLocal, cfg.AuthMode)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("WORKER_CONCURRENCY", "not-a-number")
	t.Setenv("AUTH_MODE", "OIDC")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, AuthModeOIDC, cfg.AuthMode)
}

func TestValidate(t *testing.T) {
	base := Config{AuthMode: AuthModeLocal, AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour}

	short := base
	short.JWTSecret = "too-short"
	require.Error(t, short.Validate())

	ok := base
	ok.JWTSecret = "0123456789abcdef0123456789abcdef"
	require.NoError(t, ok.Validate())

	oidc := base
	oidc.AuthMode = AuthModeOIDC
	assert.ErrorContains(t, oidc.Validate(), "AUTH_JWKS_URL")

	oidc.JWKSURL = "https://idp.example.com/realms/sc/protocol/openid-connect/certs"
	assert.NoError(t, oidc.Validate())

	unknown := ok
	unknown.AuthMode = "saml"
	assert.ErrorContains(t, unknown.Validate(), "unknown AUTH_MODE")
}
