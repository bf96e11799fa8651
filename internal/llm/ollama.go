package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider implements the Provider interface for a local Ollama server.
// Ollama's chat API differs from the OpenAI shape: message content stays a
// plain string and images ride in a separate images field on the message.
type OllamaProvider struct {
	baseProvider
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg *ProviderConfig) *OllamaProvider {
	return &OllamaProvider{
		baseProvider: newBaseProvider(cfg, ProviderOllama),
	}
}

// Available checks if Ollama is running and has at least one model.
func (p *OllamaProvider) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", p.config.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	return len(result.Models) > 0
}

func (p *OllamaProvider) buildRequest(req *ChatRequest, stream bool) ollamaChatRequest {
	ollamaReq := ollamaChatRequest{
		Model:  req.Model,
		Stream: stream,
	}
	if ollamaReq.Model == "" {
		ollamaReq.Model = p.config.Model
	}

	if req.SystemPrompt != "" {
		ollamaReq.Messages = append(ollamaReq.Messages, ollamaMessage{
			Role:    "system",
			Content: req.SystemPrompt,
		})
	}

	for i, msg := range req.Messages {
		m := ollamaMessage{Role: msg.Role, Content: msg.Content}
		if i == len(req.Messages)-1 && msg.Role == "user" {
			for _, img := range req.Images {
				m.Images = append(m.Images, ollamaImage{
					Data:     base64.StdEncoding.EncodeToString(img),
					MimeType: "image/jpeg",
				})
			}
		}
		ollamaReq.Messages = append(ollamaReq.Messages, m)
	}

	ollamaReq.Options.Temperature = req.Temperature
	if ollamaReq.Options.Temperature == 0 {
		ollamaReq.Options.Temperature = p.config.Temperature
	}
	ollamaReq.Options.NumPredict = req.MaxTokens
	if ollamaReq.Options.NumPredict == 0 {
		ollamaReq.Options.NumPredict = p.config.MaxTokens
	}
	if req.TopP > 0 {
		ollamaReq.Options.TopP = req.TopP
	}

	return ollamaReq
}

func (p *OllamaProvider) post(ctx context.Context, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.Endpoint+"/api/chat", bytes.NewReader(body))
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
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return resp, nil
}

// Chat sends a chat request to Ollama and accumulates the streamed response.
func (p *OllamaProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	resp, err := p.post(ctx, p.buildRequest(req, true))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var full strings.Builder
	var modelName string
	var promptTokens, completionTokens int

	err = p.decodeStream(ctx, resp.Body, func(chunk *ollamaChatResponse) {
		full.WriteString(chunk.Message.Content)
		if chunk.Model != "" {
			modelName = chunk.Model
		}
		if chunk.Done {
			promptTokens = chunk.PromptEvalCount
			completionTokens = chunk.EvalCount
		}
	})
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		return nil, fmt.Errorf("empty response from Ollama")
	}

	return &ChatResponse{
		Content:          full.String(),
		Model:            modelName,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TokensUsed:       promptTokens + completionTokens,
		Duration:         time.Since(start),
		FinishReason:     "stop",
	}, nil
}

// ChatStream sends a streaming chat request to Ollama, calling onToken per
// content chunk.
func (p *OllamaProvider) ChatStream(ctx context.Context, req *ChatRequest, onToken func(token string)) (string, error) {
	resp, err := p.post(ctx, p.buildRequest(req, true))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = p.decodeStream(ctx, resp.Body, func(chunk *ollamaChatResponse) {
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			if onToken != nil {
				onToken(chunk.Message.Content)
			}
		}
	})
	if err != nil {
		return full.String(), err
	}
	return full.String(), nil
}

// decodeStream reads Ollama's NDJSON chat stream until the done chunk,
// enforcing the total response size limit.
func (p *OllamaProvider) decodeStream(ctx context.Context, body io.Reader, onChunk func(*ollamaChatResponse)) error {
	decoder := json.NewDecoder(body)
	var totalBytes int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var chunk ollamaChatResponse
		if err := decoder.Decode(&chunk); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("decode stream chunk: %w", err)
		}

		totalBytes += int64(len(chunk.Message.Content))
		if totalBytes > MaxStreamedResponseSize {
			return fmt.Errorf("response size exceeded limit (%d bytes) - possible runaway generation", MaxStreamedResponseSize)
		}

		onChunk(&chunk)
		if chunk.Done {
			return nil
		}
	}
}

// Ollama API types
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature,omitempty"`
		NumPredict  int     `json:"num_predict,omitempty"`
		TopP        float64 `json:"top_p,omitempty"`
	} `json:"options"`
}

type ollamaMessage struct {
	Role    string        `json:"role"`
	Content string        `json:"content"`
	Images  []ollamaImage `json:"images,omitempty"`
}

type ollamaImage struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}
