package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/coreseed.db", cfg.Database.Path)
	assert.Equal(t, "coreseed", cfg.Auth.Issuer)
	assert.Equal(t, "coreseed", cfg.Auth.Audience)
	assert.Equal(t, 24, cfg.Auth.TokenTTLHours)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, "avatars", cfg.Storage.KeyPrefix)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CORESEED_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("CORESEED_AUTH_JWTSECRET", "top-secret")
	t.Setenv("CORESEED_AUTH_TOKENTTLHOURS", "48")
	t.Setenv("CORESEED_STORAGE_BUCKET", "avatars-bucket")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "top-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 48, cfg.Auth.TokenTTLHours)
	assert.Equal(t, "avatars-bucket", cfg.Storage.Bucket)
}
