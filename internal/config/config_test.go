package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDAIA_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "local", cfg.AIProvider)
	require.Equal(t, 60*time.Second, cfg.AITimeout)
	require.Equal(t, 24*time.Hour, cfg.JWTAccessTTL)
	require.Equal(t, 30*24*time.Hour, cfg.JWTRefreshTTL)
	require.Equal(t, 5*time.Minute, cfg.StatsCacheTTL)
	require.Equal(t, 5, cfg.EvaluationRateLimit)
	require.Equal(t, "redaia", cfg.NATSSubjectPrefix)
	require.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDAIA_JWT_SECRET", "secret")
	t.Setenv("REDAIA_APP_PORT", ":9000")
	t.Setenv("REDAIA_AI_PROVIDER", " Groq ")
	t.Setenv("REDAIA_AI_TIMEOUT", "15s")
	t.Setenv("REDAIA_GROQ_API_KEY", "gsk")
	t.Setenv("REDAIA_CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REDAIA_NATS_SUBJECT_PREFIX", "school.")
	t.Setenv("REDAIA_JWT_REFRESH_TTL", "168h")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddress())
	require.Equal(t, "groq", cfg.AIProvider)
	require.Equal(t, 15*time.Second, cfg.AITimeout)
	require.Equal(t, "gsk", cfg.GroqAPIKey)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	require.Equal(t, "school", cfg.NATSSubjectPrefix)
	require.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("REDAIA_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("REDAIA_JWT_SECRET", "secret")
	t.Setenv("REDAIA_AI_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
