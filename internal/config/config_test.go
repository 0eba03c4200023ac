package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "3000", cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, "data.json", cfg.Store.DataFile)
	require.Equal(t, ".terrenos_cache.json", cfg.Store.CacheFile)
	require.Equal(t, int64(DefaultMaxBodyBytes), cfg.Store.MaxBodyBytes)
	require.Equal(t, "terrenos_py", cfg.Cloudinary.Folder)
	require.Equal(t, "terrenos", cfg.MinIO.Bucket)
	require.Equal(t, "admin", cfg.Admin.Username)
	require.Equal(t, time.Hour, cfg.JWT.AccessTokenTTL)
	require.Equal(t, 10.0, cfg.RateLimit.RPS)
	require.Equal(t, 20, cfg.RateLimit.Burst)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("DATA_FILE", "/srv/terrenos/data.json")
	t.Setenv("MAX_BODY_BYTES", "1048576")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "/srv/terrenos/data.json", cfg.Store.DataFile)
	require.Equal(t, int64(1<<20), cfg.Store.MaxBodyBytes)
	require.Equal(t, "demo", cfg.Cloudinary.CloudName)
	require.Equal(t, "s3cret", cfg.Admin.Password)
	require.Equal(t, "jwt-secret", cfg.JWT.Secret)
	require.True(t, cfg.RateLimit.Enabled)
}
