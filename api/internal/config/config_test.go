package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chip-scanner/api/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("THINKING_BUDGET", "")
	for _, k := range []string{"PORT", "ENGINE", "GEMINI_MODEL", "PRICE_REGION", "PRICE_CURRENCY", "STORE"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "gemini", cfg.Engine)
	assert.Equal(t, "gemini-3-pro-preview", cfg.GeminiModel)
	assert.Equal(t, 32768, cfg.ThinkingBudget)
	assert.Equal(t, "India", cfg.PriceRegion)
	assert.Equal(t, "INR", cfg.PriceCurrency)
	assert.Equal(t, "file", cfg.Store)
	assert.Empty(t, cfg.GeminiAPIKey)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine: openai
openaiModel: gpt-4.1
thinkingBudget: 2048
store: minio
priceRetailers: [Robu.in, Evelta]
minio:
  endpoint: localhost:9000
  bucketName: scans
  useSSL: true
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("THINKING_BUDGET", "")
	t.Setenv("MINIO_USE_SSL", "")
	for _, k := range []string{"ENGINE", "STORE", "PRICE_RETAILERS", "MINIO_ENDPOINT", "MINIO_BUCKET"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Engine)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 2048, cfg.ThinkingBudget)
	assert.Equal(t, "minio", cfg.Store)
	assert.Equal(t, []string{"Robu.in", "Evelta"}, cfg.PriceRetailers)
	assert.Equal(t, "localhost:9000", cfg.Minio.Endpoint)
	assert.Equal(t, "scans", cfg.Minio.Bucket)
	assert.True(t, cfg.Minio.UseSSL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad budget", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Setenv("THINKING_BUDGET", "lots")
		_, err := config.Load()
		require.ErrorContains(t, err, "THINKING_BUDGET")
	})
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := config.Load()
		require.Error(t, err)
	})
}
