package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TogetherAIProvider implements the Provider interface for TogetherAI.
// The API is OpenAI-compatible except that image_url parts carry the data URL
// as a bare string instead of an object, and repetition control is named
// repetition_penalty.
type TogetherAIProvider struct {
	baseProvider
}

// NewTogetherAIProvider creates a new TogetherAI provider.
func NewTogetherAIProvider(cfg *ProviderConfig) *TogetherAIProvider {
	return &TogetherAIProvider{
		baseProvider: newBaseProvider(cfg, ProviderTogetherAI),
	}
}

func (p *TogetherAIProvider) buildRequest(req *ChatRequest, stream bool) togetherChatRequest {
	tReq := togetherChatRequest{
		Model:  NormalizeModelName(ProviderTogetherAI, req.Model),
		Stream: stream,
	}
	if tReq.Model == "" {
		tReq.Model = NormalizeModelName(ProviderTogetherAI, p.config.Model)
	}

	if req.SystemPrompt != "" {
		tReq.Messages = append(tReq.Messages, togetherMessage{
			Role:    "system",
			Content: req.SystemPrompt,
		})
	}

	for i, msg := range req.Messages {
		content := any(msg.Content)
		if i == len(req.Messages)-1 && msg.Role == "user" && len(req.Images) > 0 {
			parts := []togetherContentPart{{Type: "text", Text: msg.Content}}
			for _, img := range req.Images {
				parts = append(parts, togetherContentPart{
					Type:     "image_url",
					ImageURL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
				})
			}
			content = parts
		}
		tReq.Messages = append(tReq.Messages, togetherMessage{
			Role:    msg.Role,
			Content: content,
		})
	}

	tReq.MaxTokens = req.MaxTokens
	if tReq.MaxTokens == 0 {
		tReq.MaxTokens = p.config.MaxTokens
	}
	tReq.Temperature = req.Temperature
	if tReq.Temperature == 0 {
		tReq.Temperature = p.config.Temperature
	}
	tReq.TopP = req.TopP

	return tReq
}

func (p *TogetherAIProvider) post(ctx context.Context, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		resp.Body.Close()
		return nil, fmt.Errorf("TogetherAI error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return resp, nil
}

// Chat sends a chat request to TogetherAI.
func (p *TogetherAIProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if p.config.APIKey == "" {
		return nil, &MissingCredentialError{Provider: ProviderTogetherAI}
	}

	start := time.Now()

	resp, err := p.post(ctx, p.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&tResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(tResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := tResp.Choices[0]
	return &ChatResponse{
		Content:          choice.Message.Content,
		Model:            tResp.Model,
		PromptTokens:     tResp.Usage.PromptTokens,
		CompletionTokens: tResp.Usage.CompletionTokens,
		TokensUsed:       tResp.Usage.TotalTokens,
		Duration:         time.Since(start),
		FinishReason:     choice.FinishReason,
	}, nil
}

// ChatStream sends a streaming chat request to TogetherAI.
func (p *TogetherAIProvider) ChatStream(ctx context.Context, req *ChatRequest, onToken func(token string)) (string, error) {
	if p.config.APIKey == "" {
		return "", &MissingCredentialError{Provider: ProviderTogetherAI}
	}

	resp, err := p.post(ctx, p.buildRequest(req, true))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return decodeSSEStream(resp.Body, onToken)
}

// TogetherAI API types
type togetherChatRequest struct {
	Model             string            `json:"model"`
	Messages          []togetherMessage `json:"messages"`
	MaxTokens         int               `json:"max_tokens,omitempty"`
	Temperature       float64           `json:"temperature,omitempty"`
	TopP              float64           `json:"top_p,omitempty"`
	RepetitionPenalty float64           `json:"repetition_penalty,omitempty"`
	Stream            bool              `json:"stream,omitempty"`
}

type togetherMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type togetherContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	// ImageURL is the bare data URL string; TogetherAI does not wrap it in
	// an object the way OpenAI does.
	ImageURL string `json:"image_url,omitempty"`
}
