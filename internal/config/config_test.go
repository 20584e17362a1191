package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("VERIFY_MAX_DISTANCE_M", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, defaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, 200.0, cfg.Verification.MaxDistanceMeters)
	assert.Equal(t, 3, cfg.Verification.RetryAttempts)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, defaultGeminiModel, cfg.Concierge.Model)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("VERIFY_MAX_DISTANCE_M", "150.5")
	t.Setenv("RECONCILE_INTERVAL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://besaha.ma, https://admin.besaha.ma ,")
	t.Setenv("MINIO_USE_SSL", "yes")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.AppEnv)
	assert.Equal(t, 150.5, cfg.Verification.MaxDistanceMeters)
	assert.Equal(t, 30*time.Second, cfg.Verification.ReconcileInterval)
	assert.Equal(t, []string{"https://besaha.ma", "https://admin.besaha.ma"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.Upload.MinioUseSSL)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"JWT_TTL":               "forever",
		"VERIFY_MAX_DISTANCE_M": "-5",
		"VERIFY_RETRY_ATTEMPTS": "0",
		"RATE_LIMIT_BURST":      "abc",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, IsProdLike(cfg.AppEnv))
}

func TestLoad_MinioNeedsCredentials(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "")
	_, err := Load()
	assert.ErrorContains(t, err, "MINIO_ACCESS_KEY")
}
