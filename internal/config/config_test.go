package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromPathCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, "openai", cfg.LLM.DefaultProvider)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Contains(t, cfg.LLM.Providers, "openai")
	assert.Contains(t, cfg.LLM.Providers, "ollama")
}

func TestLoadFromPathSparseFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  default_provider: ollama\n"), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.DefaultProvider)
	// Everything the file omits falls back to defaults.
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.NotEmpty(t, cfg.LLM.Providers)
}

func TestLoadFromPathReadsProviderSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `llm:
  default_provider: togetherai
  providers:
    togetherai:
      api_key: file-key
      model: Qwen2.5-VL-72B-Instruct
cache:
  backend: sqlite
  ttl_hours: 6
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "togetherai", cfg.LLM.DefaultProvider)
	assert.Equal(t, "file-key", cfg.LLM.Providers["togetherai"].APIKey)
	assert.Equal(t, "Qwen2.5-VL-72B-Instruct", cfg.LLM.Providers["togetherai"].Model)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 6, cfg.Cache.TTLHours)
}

func TestSaveToPathRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.LLM.DefaultProvider = "lmstudio"
	cfg.Cache.Backend = "sqlite"
	require.NoError(t, cfg.SaveToPath(path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "lmstudio", loaded.LLM.DefaultProvider)
	assert.Equal(t, "sqlite", loaded.Cache.Backend)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".pixelsmith"), expandPath("~/.pixelsmith"))
	assert.Equal(t, "/absolute/path", expandPath("/absolute/path"))
	assert.Equal(t, "relative/path", expandPath("relative/path"))
}
