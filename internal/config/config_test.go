package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "directory")
	t.Setenv("DB_NAME", "directory")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.Zero(t, cfg.Reset.RequestCooldown)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("RESET_REQUEST_COOLDOWN", "2m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.org, https://example.org ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Minute, cfg.Reset.RequestCooldown)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, []string{"https://admin.example.org", "https://example.org"}, cfg.AllowedOrigins)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing db host", env: map[string]string{"DB_HOST": ""}},
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "bad cooldown", env: map[string]string{"RESET_REQUEST_COOLDOWN": "soon"}},
		{name: "negative cooldown", env: map[string]string{"RESET_REQUEST_COOLDOWN": "-1s"}},
		{name: "bootstrap email without password", env: map[string]string{"BOOTSTRAP_ADMIN_EMAIL": "root@example.org"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
