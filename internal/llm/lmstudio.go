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

// LMStudioProvider implements the Provider interface for LM Studio's local
// OpenAI-compatible server. Images use Anthropic-style source blocks rather
// than OpenAI image_url parts; repetition control is named repeat_penalty.
type LMStudioProvider struct {
	baseProvider
}

// NewLMStudioProvider creates a new LM Studio provider.
func NewLMStudioProvider(cfg *ProviderConfig) *LMStudioProvider {
	return &LMStudioProvider{
		baseProvider: newBaseProvider(cfg, ProviderLMStudio),
	}
}

// Available checks whether the local server answers; LM Studio needs no key.
func (p *LMStudioProvider) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", p.config.Endpoint+"/models", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (p *LMStudioProvider) buildRequest(req *ChatRequest, stream bool) lmStudioChatRequest {
	lmReq := lmStudioChatRequest{
		Model:  req.Model,
		Stream: stream,
	}
	if lmReq.Model == "" {
		lmReq.Model = p.config.Model
	}

	if req.SystemPrompt != "" {
		lmReq.Messages = append(lmReq.Messages, lmStudioMessage{
			Role:    "system",
			Content: req.SystemPrompt,
		})
	}

	for i, msg := range req.Messages {
		content := any(msg.Content)
		if i == len(req.Messages)-1 && msg.Role == "user" && len(req.Images) > 0 {
			parts := []lmStudioContentPart{{Type: "text", Text: msg.Content}}
			for _, img := range req.Images {
				parts = append(parts, lmStudioContentPart{
					Type: "image",
					Source: &lmStudioImageSource{
						Type:      "base64",
						MediaType: "image/jpeg",
						Data:      base64.StdEncoding.EncodeToString(img),
					},
				})
			}
			content = parts
		}
		lmReq.Messages = append(lmReq.Messages, lmStudioMessage{
			Role:    msg.Role,
			Content: content,
		})
	}

	lmReq.MaxTokens = req.MaxTokens
	if lmReq.MaxTokens == 0 {
		lmReq.MaxTokens = p.config.MaxTokens
	}
	lmReq.Temperature = req.Temperature
	if lmReq.Temperature == 0 {
		lmReq.Temperature = p.config.Temperature
	}
	lmReq.TopP = req.TopP

	return lmReq
}

func (p *LMStudioProvider) post(ctx context.Context, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		resp.Body.Close()
		return nil, fmt.Errorf("LM Studio error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return resp, nil
}

// Chat sends a chat request to LM Studio.
func (p *LMStudioProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	resp, err := p.post(ctx, p.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lmResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&lmResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(lmResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := lmResp.Choices[0]
	return &ChatResponse{
		Content:          choice.Message.Content,
		Model:            lmResp.Model,
		PromptTokens:     lmResp.Usage.PromptTokens,
		CompletionTokens: lmResp.Usage.CompletionTokens,
		TokensUsed:       lmResp.Usage.TotalTokens,
		Duration:         time.Since(start),
		FinishReason:     choice.FinishReason,
	}, nil
}

// ChatStream sends a streaming chat request to LM Studio.
func (p *LMStudioProvider) ChatStream(ctx context.Context, req *ChatRequest, onToken func(token string)) (string, error) {
	resp, err := p.post(ctx, p.buildRequest(req, true))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return decodeSSEStream(resp.Body, onToken)
}

// LM Studio API types
type lmStudioChatRequest struct {
	Model         string            `json:"model"`
	Messages      []lmStudioMessage `json:"messages"`
	MaxTokens     int               `json:"max_tokens,omitempty"`
	Temperature   float64           `json:"temperature,omitempty"`
	TopP          float64           `json:"top_p,omitempty"`
	RepeatPenalty float64           `json:"repeat_penalty,omitempty"`
	Stream        bool              `json:"stream,omitempty"`
}

type lmStudioMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type lmStudioContentPart struct {
	Type   string               `json:"type"`
	Text   string               `json:"text,omitempty"`
	Source *lmStudioImageSource `json:"source,omitempty"`
}

type lmStudioImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}
