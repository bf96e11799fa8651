package llm

import (
	"sort"
	"strings"
	"sync"
)

// Provider identifiers. These are the canonical (lowercase) ids; lookups are
// case-insensitive.
const (
	ProviderOpenAI     = "openai"
	ProviderTogetherAI = "togetherai"
	ProviderOllama     = "ollama"
	ProviderLMStudio   = "lmstudio"
)

// ProviderInfo describes a registered provider: the models it offers, what it
// can do, how to resolve its credentials, and how to construct a client.
// Adding a provider means adding one implementation file and one entry here.
type ProviderInfo struct {
	// ID is the canonical provider identifier.
	ID string

	// DisplayName for CLI output.
	DisplayName string

	// Models lists the model identifiers as shown to callers.
	Models []string

	// Capabilities this provider supports.
	Capabilities map[Capability]bool

	// RequiresAPIKey is true for cloud providers. Local providers resolve
	// with only a base URL.
	RequiresAPIKey bool

	// EnvVar is the conventional environment variable holding the API key.
	EnvVar string

	// NormalizeModel converts a display model name into the identifier the
	// provider's API expects. Nil means no normalization.
	NormalizeModel func(model string) string

	// New constructs a client from resolved configuration.
	New func(cfg *ProviderConfig) StreamingProvider
}

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderInfo{}
)

func init() {
	for _, info := range builtinProviders {
		registry[info.ID] = info
	}
}

// Register adds (or replaces) a provider entry. The built-in providers are
// registered at init; callers embedding new backends add theirs here.
func Register(info ProviderInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(info.ID)] = info
}

var builtinProviders = map[string]ProviderInfo{
	ProviderOpenAI: {
		ID:          ProviderOpenAI,
		DisplayName: "OpenAI",
		Models:      []string{"gpt-4-turbo", "gpt-4o", "gpt-4o-mini"},
		Capabilities: map[Capability]bool{
			CapabilityText:      true,
			CapabilityImage:     true,
			CapabilityStreaming: true,
		},
		RequiresAPIKey: true,
		EnvVar:         "OPENAI_API_KEY",
		New:            func(cfg *ProviderConfig) StreamingProvider { return NewOpenAIProvider(cfg) },
	},
	ProviderTogetherAI: {
		ID:          ProviderTogetherAI,
		DisplayName: "TogetherAI",
		Models: []string{
			"Llama-3.3-70B-Instruct-Turbo",
			"Llama-4-Maverick-17B-128E-Instruct-FP8",
			"Qwen2.5-VL-72B-Instruct",
		},
		Capabilities: map[Capability]bool{
			CapabilityText:      true,
			CapabilityImage:     true,
			CapabilityStreaming: true,
		},
		RequiresAPIKey: true,
		EnvVar:         "TOGETHER_API_KEY",
		NormalizeModel: normalizeTogetherModel,
		New:            func(cfg *ProviderConfig) StreamingProvider { return NewTogetherAIProvider(cfg) },
	},
	ProviderOllama: {
		ID:          ProviderOllama,
		DisplayName: "Ollama",
		Models:      []string{"llava", "llama3", "qwen2.5-coder"},
		Capabilities: map[Capability]bool{
			CapabilityText:      true,
			CapabilityImage:     true,
			CapabilityStreaming: true,
		},
		RequiresAPIKey: false,
		New:            func(cfg *ProviderConfig) StreamingProvider { return NewOllamaProvider(cfg) },
	},
	ProviderLMStudio: {
		ID:          ProviderLMStudio,
		DisplayName: "LM Studio",
		Models:      []string{"local-model"},
		Capabilities: map[Capability]bool{
			CapabilityText:      true,
			CapabilityImage:     true,
			CapabilityStreaming: true,
		},
		RequiresAPIKey: false,
		New:            func(cfg *ProviderConfig) StreamingProvider { return NewLMStudioProvider(cfg) },
	},
}

// togetherOrgPrefixes maps model-family name prefixes to the org path the
// TogetherAI API expects. The UI shows bare model names; the API wants
// "org/model".
var togetherOrgPrefixes = []struct {
	prefix string
	org    string
}{
	{"Llama-4", "meta-llama"},
	{"Llama-3", "meta-llama"},
	{"Llama", "meta-llama"},
	{"Qwen", "Qwen"},
	{"Mixtral", "mistralai"},
	{"Mistral", "mistralai"},
	{"DeepSeek", "deepseek-ai"},
}

func normalizeTogetherModel(model string) string {
	if strings.Contains(model, "/") {
		return model
	}
	for _, p := range togetherOrgPrefixes {
		if strings.HasPrefix(model, p.prefix) {
			return p.org + "/" + model
		}
	}
	return model
}

// Lookup returns the registry entry for a provider id (case-insensitive).
func Lookup(id string) (ProviderInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	return info, ok
}

// Providers returns the registered provider ids, sorted.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Supports reports whether a provider has a capability. Unknown providers
// support nothing.
func Supports(id string, cap Capability) bool {
	info, ok := Lookup(id)
	if !ok {
		return false
	}
	return info.Capabilities[cap]
}

// NormalizeModelName converts a display model name into the identifier the
// provider's API expects. Unknown providers pass through unchanged.
func NormalizeModelName(providerID, model string) string {
	info, ok := Lookup(providerID)
	if !ok || info.NormalizeModel == nil {
		return model
	}
	return info.NormalizeModel(model)
}
