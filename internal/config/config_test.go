package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newConfig(t *testing.T, values map[string]any) config.Config {
	t.Helper()
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	config.SetDefaults(v)
	return config.FromViper(v)
}

func TestDefaults(t *testing.T) {
	c := newConfig(t, nil)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.True(t, c.IsDev())
	require.Equal(t, 2, c.GetMaxActiveSessions())
	require.Equal(t, 2*time.Minute, c.GetSessionTTL())
	require.Equal(t, 5*24*time.Hour, c.GetClaimsTTL())
	require.Equal(t, time.Duration(0), c.GetReaperInterval())
	require.Equal(t, config.StoreMemory, c.GetStore())
	require.NotEmpty(t, c.GetTokenSecret(), "DEV gets a generated secret")
	require.NoError(t, config.Validate(c))
}

func TestOverrides(t *testing.T) {
	c := newConfig(t, map[string]any{
		"PORT":            ":9000",
		"STORE":           "SQLite",
		"SESSION_TTL":     "10m",
		"REAPER_INTERVAL": "30s",
		"ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com",
	})

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, config.StoreSQLite, c.GetStore())
	require.Equal(t, 10*time.Minute, c.GetSessionTTL())
	require.Equal(t, 30*time.Second, c.GetReaperInterval())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("https://c.example.com"))
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	c := newConfig(t, map[string]any{"ENV": "prod"})

	require.Empty(t, c.GetTokenSecret())
	require.ErrorContains(t, config.Validate(c), "TOKEN_SECRET")
}

func TestValidate_UnknownStore(t *testing.T) {
	c := newConfig(t, map[string]any{"STORE": "mongo"})

	require.ErrorContains(t, config.Validate(c), "unknown STORE")
}

func TestNew_ReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("MAX_ACTIVE_SESSIONS", "3")

	c := config.New()

	require.Equal(t, ":7070", c.GetPort())
	require.Equal(t, 3, c.GetMaxActiveSessions())
}
