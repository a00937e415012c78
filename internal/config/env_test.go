package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "ftp")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfigParsesEnvironment(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("DEFAULT_AI_PROVIDER", " Claude ")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DECK_RETENTION", "48h")
	t.Setenv("MAX_CONTEXT_CHARS", "500")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.Equal(t, "claude", cfg.DefaultAIProvider)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 48*time.Hour, cfg.DeckRetention)
	assert.Equal(t, 500, cfg.MaxContextChars)
	assert.False(t, cfg.IsLocalStorage())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StorageBackend:         "local",
			LogFormat:              "json",
			MaxContextChars:        10000,
			MaxUploadBytes:         1 << 20,
			RequestTimeout:         time.Minute,
			HTTPTimeout:            time.Second,
			LLMTimeout:             time.Second,
			StorageTimeout:         time.Second,
			DeckRetention:          time.Hour,
			RetentionSweepInterval: time.Minute,
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.StorageBackend = "gcs"
	assert.ErrorContains(t, cfg.Validate(), "STORAGE_BACKEND")

	cfg = valid()
	cfg.LogFormat = "xml"
	assert.ErrorContains(t, cfg.Validate(), "LOG_FORMAT")

	cfg = valid()
	cfg.LLMTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "LLM_TIMEOUT")

	cfg = valid()
	cfg.RequestTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "REQUEST_TIMEOUT")

	cfg = valid()
	cfg.RequestTimeout = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "REQUEST_TIMEOUT")

	cfg = valid()
	cfg.MaxUploadBytes = 0
	assert.ErrorContains(t, cfg.Validate(), "MAX_UPLOAD_BYTES")

	cfg = valid()
	cfg.MaxUploadBytes = -1
	assert.ErrorContains(t, cfg.Validate(), "MAX_UPLOAD_BYTES")
}
