// Package config loads Pixelsmith configuration from ~/.pixelsmith/config.yaml
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
// It is loaded from ~/.pixelsmith/config.yaml and can be overridden by
// environment variables (prefix PIXELSMITH, e.g.
// PIXELSMITH_LLM_PROVIDERS_OPENAI_API_KEY).
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig contains configuration for LLM providers.
type LLMConfig struct {
	// DefaultProvider specifies which provider to use when the caller does
	// not pick one (e.g. "openai", "ollama").
	DefaultProvider string `mapstructure:"default_provider" yaml:"default_provider"`
	// Providers maps provider names to their specific configuration.
	Providers map[string]ProviderConfig `mapstructure:"providers" yaml:"providers"`
}

// ProviderConfig contains configuration for a specific LLM provider.
type ProviderConfig struct {
	// Endpoint is the API base URL (primarily for local providers).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	// APIKey is the authentication key for the provider.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	// Model is the default model to use with this provider.
	Model string `mapstructure:"model" yaml:"model,omitempty"`
}

// CacheConfig contains configuration for the result cache.
type CacheConfig struct {
	// Backend selects the cache store: "memory" (default) or "sqlite".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// TTLHours is how long entries stay valid. Default 24.
	TTLHours int `mapstructure:"ttl_hours" yaml:"ttl_hours"`
	// Path is the sqlite database path (sqlite backend only).
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// LoggingConfig contains configuration for application logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		LLM: LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]ProviderConfig{
				"openai":     {Model: "gpt-4-turbo"},
				"togetherai": {Model: "Llama-3.3-70B-Instruct-Turbo"},
				"ollama":     {Endpoint: "http://127.0.0.1:11434", Model: "llava"},
				"lmstudio":   {Endpoint: "http://127.0.0.1:1234/v1", Model: "local-model"},
			},
		},
		Cache: CacheConfig{
			Backend:  "memory",
			TTLHours: 24,
			Path:     filepath.Join(homeDir, ".pixelsmith", "cache.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the default location (~/.pixelsmith/config.yaml)
// and merges with environment variables. If no config file exists, it creates
// one with default values.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadFromPath(filepath.Join(homeDir, ".pixelsmith", "config.yaml"))
}

// LoadFromPath reads configuration from a specific file path and merges with
// environment variables. If the file doesn't exist, it creates one with
// default values.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Example: PIXELSMITH_LLM_DEFAULT_PROVIDER
	v.SetEnvPrefix("PIXELSMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	cfg.Cache.Path = expandPath(cfg.Cache.Path)

	return &cfg, nil
}

// applyDefaults fills in missing values so a sparse config file still works.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.LLM.DefaultProvider == "" {
		c.LLM.DefaultProvider = defaults.LLM.DefaultProvider
	}
	if c.LLM.Providers == nil {
		c.LLM.Providers = defaults.LLM.Providers
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaults.Cache.Backend
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaults.Cache.TTLHours
	}
	if c.Cache.Path == "" {
		c.Cache.Path = defaults.Cache.Path
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}

// SaveToPath writes the current configuration to a specific file path.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeConfigFile(path, c)
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := "# Pixelsmith configuration\n# API keys may also be provided via environment variables\n# (OPENAI_API_KEY, TOGETHER_API_KEY).\n\n"
	return os.WriteFile(path, append([]byte(header), data...), 0600)
}

// expandPath expands a leading tilde to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}
	return path
}
