package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, 10, cfg.Uploads.MaxBatchFiles)
	assert.Contains(t, cfg.Uploads.MaterialsAllowedExtensions, ".pptx")
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_EXPIRATION", "45m")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("UPLOAD_ALLOWED_EXTENSIONS", "PDF, .Txt")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{".pdf", ".txt"}, cfg.Uploads.AllowedExtensions)
}

func TestValidateRequiresSecretsOutsideDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvProduction, JWT: JWTConfig{Secret: devJWTSecret}}
	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "prod-secret"
	cfg.Uploads.SignedURLSecret = "prod-signing"
	assert.NoError(t, cfg.Validate())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
