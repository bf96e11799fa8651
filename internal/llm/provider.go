// Package llm provides the LLM provider client layer for Pixelsmith.
// Supports OpenAI, TogetherAI, Ollama (local), and LM Studio (local).
package llm

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Security limits to prevent unbounded memory usage
const (
	// MaxErrorBodySize limits how much error response body we read (1MB)
	MaxErrorBodySize = 1 * 1024 * 1024

	// MaxStreamedResponseSize limits total streamed response size (50MB)
	MaxStreamedResponseSize = 50 * 1024 * 1024
)

// readLimitedBody reads up to maxBytes from r, returning the bytes read.
// Used for error responses to prevent unbounded memory allocation.
func readLimitedBody(r io.Reader, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBytes))
}

// Capability describes an operation a provider can perform.
type Capability string

const (
	CapabilityText      Capability = "text"
	CapabilityImage     Capability = "image"
	CapabilityStreaming Capability = "streaming"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Chat sends a request and returns the complete response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the provider identifier.
	Name() string

	// Available returns true if the provider is configured and reachable.
	Available() bool
}

// StreamingProvider extends Provider with streaming support.
type StreamingProvider interface {
	Provider
	// ChatStream is like Chat but calls onToken for each token as it arrives.
	// Returns the complete response text when done.
	ChatStream(ctx context.Context, req *ChatRequest, onToken func(token string)) (string, error)
}

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	// Model to use (provider-specific; pass through NormalizeModelName first).
	Model string `json:"model"`

	// SystemPrompt sets the model's behavior.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Messages in the conversation.
	Messages []Message `json:"messages"`

	// Images holds raw JPEG payloads attached to the last user message.
	// Each provider encodes these in its own wire shape.
	Images [][]byte `json:"-"`

	// MaxTokens limits response length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature,omitempty"`

	// TopP nucleus sampling cutoff (0 = provider default).
	TopP float64 `json:"top_p,omitempty"`
}

// Message represents a conversation message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse contains the LLM's response.
type ChatResponse struct {
	Content          string        `json:"content"`
	Model            string        `json:"model"`
	TokensUsed       int           `json:"tokens_used,omitempty"`
	PromptTokens     int           `json:"prompt_tokens,omitempty"`
	CompletionTokens int           `json:"completion_tokens,omitempty"`
	Duration         time.Duration `json:"duration"`
	FinishReason     string        `json:"finish_reason,omitempty"`
}

// ProviderConfig contains configuration for an LLM provider.
type ProviderConfig struct {
	// Name identifies the provider (openai, togetherai, ollama, lmstudio).
	Name string

	// Endpoint is the API base URL.
	Endpoint string

	// APIKey for authentication. Local providers leave this empty.
	APIKey string

	// Model is the default model to use.
	Model string

	// MaxTokens default for responses.
	MaxTokens int

	// Temperature default.
	Temperature float64

	// Timeout for API calls.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for a provider.
func DefaultConfig(name string) *ProviderConfig {
	switch name {
	case ProviderOpenAI:
		return &ProviderConfig{
			Name:        ProviderOpenAI,
			Endpoint:    "https://api.openai.com/v1",
			Model:       "gpt-4-turbo",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		}
	case ProviderTogetherAI:
		return &ProviderConfig{
			Name:        ProviderTogetherAI,
			Endpoint:    "https://api.together.xyz/v1",
			Model:       "meta-llama/Llama-3.3-70B-Instruct-Turbo",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		}
	case ProviderOllama:
		return &ProviderConfig{
			Name:        ProviderOllama,
			Endpoint:    "http://127.0.0.1:11434",
			Model:       "llava",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     5 * time.Minute,
		}
	case ProviderLMStudio:
		return &ProviderConfig{
			Name:        ProviderLMStudio,
			Endpoint:    "http://127.0.0.1:1234/v1",
			Model:       "local-model",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     5 * time.Minute,
		}
	default:
		return &ProviderConfig{
			Name:        name,
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		}
	}
}

// baseProvider provides common functionality for HTTP-based LLM providers.
type baseProvider struct {
	config *ProviderConfig
	client *http.Client
}

// newBaseProvider creates a new base provider with defaults applied.
func newBaseProvider(cfg *ProviderConfig, providerName string) baseProvider {
	if cfg == nil {
		cfg = DefaultConfig(providerName)
	}

	defaults := DefaultConfig(providerName)
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaults.Temperature
	}
	cfg.Name = providerName

	return baseProvider{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider identifier.
func (b *baseProvider) Name() string {
	return b.config.Name
}

// Available checks if the API key is configured.
func (b *baseProvider) Available() bool {
	return b.config.APIKey != ""
}
