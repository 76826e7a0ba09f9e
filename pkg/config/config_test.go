package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, 30, cfg.Intake.DedupWindowDays)
	assert.Equal(t, 30, cfg.Auth.AccessTokenMinutes)
	assert.Equal(t, 7, cfg.Auth.RefreshTokenDays)
	assert.NotEmpty(t, cfg.Auth.SecretKey, "local env falls back to a dev secret")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("INTAKE_DEDUP_WINDOW_DAYS", "14")
	t.Setenv("AUTH_SECRET_KEY", "s3cret")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 14, cfg.Intake.DedupWindowDays)
	assert.Equal(t, "s3cret", cfg.Auth.SecretKey)
}

func TestLoad_SecretRequiredOutsideLocal(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_SECRET_KEY", "")

	_, err := Load("test")
	assert.Error(t, err)
}

func TestDatabaseConfig_URL(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5433, User: "crm", Password: "pw",
		Database: "crm_engine", SSLMode: "require",
	}
	assert.Equal(t, "postgres://crm:pw@db:5433/crm_engine?sslmode=require", c.URL())
}
