package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("PUBLIC_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, "http://localhost:9090", cfg.App.PublicBaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 30*time.Minute, cfg.Auth.PasswordResetTTL())
	assert.Equal(t, 200, cfg.Incidents.ListLimit)
	assert.False(t, cfg.Incidents.LockStateFields)
	assert.Empty(t, cfg.Postgres.DSN)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PUBLIC_BASE_URL", "https://ops.airport.example/")
	t.Setenv("INCIDENTS_LOCK_STATE_FIELDS", "true")
	t.Setenv("INCIDENTS_LIST_LIMIT", "not-a-number")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://ops.airport.example", cfg.App.PublicBaseURL)
	assert.True(t, cfg.Incidents.LockStateFields)
	assert.Equal(t, 200, cfg.Incidents.ListLimit)
	assert.Zero(t, cfg.App.RequestTimeout())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"dev secret in production":   {"APP_ENV": "production", "AUTH_JWT_SECRET": ""},
		"short secret in production": {"APP_ENV": "production", "AUTH_JWT_SECRET": "short"},
		"bcrypt cost too low":        {"AUTH_BCRYPT_COST": "2"},
		"non-positive list limit":    {"INCIDENTS_LIST_LIMIT": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadPoolDurations(t *testing.T) {
	t.Setenv("POSTGRES_CONN_MAX_IDLE_SECONDS", "15")
	t.Setenv("POSTGRES_CONN_MAX_LIFE_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Postgres.MaxConnIdle)
	assert.Equal(t, 300*time.Second, cfg.Postgres.MaxConnLife)
}
