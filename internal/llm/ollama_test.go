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

func TestOllamaChatAccumulatesStream(t *testing.T) {
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		gotBody, _ = io.ReadAll(r.Body)

		w.Write([]byte(`{"model":"llava","message":{"role":"assistant","content":"The design "},"done":false}` + "\n"))
		w.Write([]byte(`{"model":"llava","message":{"role":"assistant","content":"shows a form."},"done":true,"prompt_eval_count":12,"eval_count":6}` + "\n"))
	}))
	defer server.Close()

	p := NewOllamaProvider(&ProviderConfig{Endpoint: server.URL})

	resp, err := p.Chat(context.Background(), &ChatRequest{
		Model:    "llava",
		Messages: []Message{{Role: "user", Content: "analyze this"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "The design shows a form.", resp.Content)
	assert.Equal(t, "llava", resp.Model)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 6, resp.CompletionTokens)
	assert.Equal(t, 18, resp.TokensUsed)

	var wire ollamaChatRequest
	require.NoError(t, json.Unmarshal(gotBody, &wire))
	assert.True(t, wire.Stream)
	assert.Equal(t, "llava", wire.Model)
}

func TestOllamaImageEncoding(t *testing.T) {
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"model":"llava","message":{"content":"ok"},"done":true}` + "\n"))
	}))
	defer server.Close()

	p := NewOllamaProvider(&ProviderConfig{Endpoint: server.URL})

	_, err := p.Chat(context.Background(), &ChatRequest{
		Model:    "llava",
		Messages: []Message{{Role: "user", Content: "analyze this"}},
		Images:   [][]byte{jpegStub},
	})
	require.NoError(t, err)

	var wire struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Images  []struct {
				Data     string `json:"data"`
				MimeType string `json:"mimeType"`
			} `json:"images"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &wire))
	require.Len(t, wire.Messages, 1)

	// Content stays a plain string; images ride in a separate field.
	assert.Equal(t, "analyze this", wire.Messages[0].Content)
	require.Len(t, wire.Messages[0].Images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString(jpegStub), wire.Messages[0].Images[0].Data)
	assert.Equal(t, "image/jpeg", wire.Messages[0].Images[0].MimeType)
}

func TestOllamaChatStreamTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"llava","message":{"content":"a"},"done":false}` + "\n"))
		w.Write([]byte(`{"model":"llava","message":{"content":"b"},"done":false}` + "\n"))
		w.Write([]byte(`{"model":"llava","message":{"content":"c"},"done":true}` + "\n"))
	}))
	defer server.Close()

	p := NewOllamaProvider(&ProviderConfig{Endpoint: server.URL})

	var tokens []string
	full, err := p.ChatStream(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "go"}},
	}, func(token string) {
		tokens = append(tokens, token)
	})
	require.NoError(t, err)

	assert.Equal(t, "abc", full)
	assert.Equal(t, []string{"a", "b", "c"}, tokens)
}

func TestOllamaAvailable(t *testing.T) {
	t.Run("with models", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			w.Write([]byte(`{"models":[{"name":"llava:latest"}]}`))
		}))
		defer server.Close()

		p := NewOllamaProvider(&ProviderConfig{Endpoint: server.URL})
		assert.True(t, p.Available())
	})

	t.Run("no models pulled", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"models":[]}`))
		}))
		defer server.Close()

		p := NewOllamaProvider(&ProviderConfig{Endpoint: server.URL})
		assert.False(t, p.Available())
	})

	t.Run("server down", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		p := NewOllamaProvider(&ProviderConfig{Endpoint: server.URL})
		assert.False(t, p.Available())
	})
}

func TestOllamaErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	p := NewOllamaProvider(&ProviderConfig{Endpoint: server.URL})

	_, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}
