package llm

import (
	"os"

	"github.com/pixelsmith/pixelsmith/internal/config"
)

// Credentials carries a per-call credential override. Either field may be
// empty; empty fields fall through to the next resolution tier.
type Credentials struct {
	APIKey  string
	BaseURL string
}

// ResolveCredentials produces the effective API key and base URL for a
// provider. Precedence: explicit override > config file > environment
// variable > provider default (local providers only).
//
// Cloud providers fail with *MissingCredentialError when no key is found
// through any tier. Local providers resolve with only a base URL. The check
// runs only when the provider is actually selected, never at startup.
func ResolveCredentials(providerID string, override *Credentials, cfg *config.Config) (Credentials, error) {
	info, ok := Lookup(providerID)
	if !ok {
		return Credentials{}, &UnsupportedProviderError{Provider: providerID}
	}

	resolved := Credentials{}
	if override != nil {
		resolved = *override
	}

	var fileCfg config.ProviderConfig
	if cfg != nil {
		fileCfg = cfg.LLM.Providers[info.ID]
	}

	if resolved.APIKey == "" {
		resolved.APIKey = fileCfg.APIKey
	}
	if resolved.APIKey == "" && info.EnvVar != "" {
		resolved.APIKey = os.Getenv(info.EnvVar)
	}

	if resolved.BaseURL == "" {
		resolved.BaseURL = fileCfg.Endpoint
	}
	if resolved.BaseURL == "" {
		resolved.BaseURL = DefaultConfig(info.ID).Endpoint
	}

	if info.RequiresAPIKey && resolved.APIKey == "" {
		return Credentials{}, &MissingCredentialError{Provider: info.ID}
	}

	return resolved, nil
}

// NewClient constructs a provider client from resolved credentials and
// configuration. Unknown provider ids fail with *UnsupportedProviderError.
func NewClient(providerID string, override *Credentials, cfg *config.Config) (StreamingProvider, error) {
	info, ok := Lookup(providerID)
	if !ok {
		return nil, &UnsupportedProviderError{Provider: providerID}
	}

	creds, err := ResolveCredentials(providerID, override, cfg)
	if err != nil {
		return nil, err
	}

	providerCfg := &ProviderConfig{
		Name:     info.ID,
		Endpoint: creds.BaseURL,
		APIKey:   creds.APIKey,
	}
	if cfg != nil {
		providerCfg.Model = cfg.LLM.Providers[info.ID].Model
	}

	return info.New(providerCfg), nil
}
