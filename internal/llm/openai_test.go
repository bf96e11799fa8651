package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpegStub = []byte{0xFF, 0xD8, 0xFF, 0xE0}

func TestOpenAIChat(t *testing.T) {
	var gotAuth string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "gpt-4-turbo",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "a login form"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: server.URL, APIKey: "test-key"})

	resp, err := p.Chat(context.Background(), &ChatRequest{
		Model:        "gpt-4-turbo",
		SystemPrompt: "You are an analyst.",
		Messages:     []Message{{Role: "user", Content: "analyze this"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "a login form", resp.Content)
	assert.Equal(t, "gpt-4-turbo", resp.Model)
	assert.Equal(t, 15, resp.TokensUsed)
	assert.Equal(t, "stop", resp.FinishReason)

	var wire struct {
		Messages []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &wire))
	require.Len(t, wire.Messages, 2)
	assert.Equal(t, "system", wire.Messages[0].Role)
	assert.Equal(t, "analyze this", wire.Messages[1].Content)
}

func TestOpenAIImageEncoding(t *testing.T) {
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"model":"gpt-4o","choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: server.URL, APIKey: "test-key"})

	_, err := p.Chat(context.Background(), &ChatRequest{
		Model:    "gpt-4o",
		Messages: []Message{{Role: "user", Content: "analyze this"}},
		Images:   [][]byte{jpegStub},
	})
	require.NoError(t, err)

	var wire struct {
		Messages []struct {
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &wire))
	require.Len(t, wire.Messages, 1)

	// The image rides as an image_url part wrapping a data URL object.
	var parts []struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		ImageURL *struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(wire.Messages[0].Content, &parts))
	require.Len(t, parts, 2)

	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "analyze this", parts[0].Text)

	assert.Equal(t, "image_url", parts[1].Type)
	require.NotNil(t, parts[1].ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(jpegStub), parts[1].ImageURL.URL)
}

func TestOpenAIChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"The \"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"design\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: server.URL, APIKey: "test-key"})

	var tokens []string
	full, err := p.ChatStream(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "go"}},
	}, func(token string) {
		tokens = append(tokens, token)
	})
	require.NoError(t, err)

	assert.Equal(t, "The design", full)
	assert.Equal(t, []string{"The ", "design"}, tokens)
}

func TestOpenAIChatMissingKey(t *testing.T) {
	p := NewOpenAIProvider(&ProviderConfig{Endpoint: "http://unused", APIKey: ""})

	_, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})

	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ProviderOpenAI, missing.Provider)
}

func TestOpenAIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: server.URL, APIKey: "test-key"})

	_, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}
