package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8000", cfg.Server.Port)
	require.True(t, cfg.Server.IsDevelopment())
	require.Equal(t, "ai_companion", cfg.Database.DBName)
	require.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	require.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	require.Equal(t, 1, cfg.LLM.MaxAttempts)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TRUSTED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("LLM_TIMEOUT", "45")
	t.Setenv("LLM_MAX_ATTEMPTS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.False(t, cfg.Server.IsDevelopment())
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.TrustedOrigins)
	require.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	require.Equal(t, 3, cfg.LLM.MaxAttempts)
}

func TestLoadRejectsZeroAttempts(t *testing.T) {
	t.Setenv("LLM_MAX_ATTEMPTS", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "app",
		Password: "pw",
		DBName:   "companion",
		SSLMode:  "require",
	}
	require.Equal(t,
		"host=db.internal port=5433 user=app password=pw dbname=companion sslmode=require",
		db.ConnectionString(),
	)
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Redis.DB)
	require.Equal(t, 30*time.Second, cfg.LLM.Timeout)
}
