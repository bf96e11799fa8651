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

func TestTogetherAIImageEncoding(t *testing.T) {
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"model":"m","choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	p := NewTogetherAIProvider(&ProviderConfig{Endpoint: server.URL, APIKey: "test-key"})

	_, err := p.Chat(context.Background(), &ChatRequest{
		Model:    "Qwen2.5-VL-72B-Instruct",
		Messages: []Message{{Role: "user", Content: "analyze this"}},
		Images:   [][]byte{jpegStub},
	})
	require.NoError(t, err)

	var wire struct {
		Model    string `json:"model"`
		Messages []struct {
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &wire))

	// Model names are expanded to the org-qualified form on the wire.
	assert.Equal(t, "Qwen/Qwen2.5-VL-72B-Instruct", wire.Model)

	// TogetherAI takes the data URL as a bare string, not an object.
	var parts []struct {
		Type     string `json:"type"`
		ImageURL string `json:"image_url"`
	}
	require.Len(t, wire.Messages, 1)
	require.NoError(t, json.Unmarshal(wire.Messages[0].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(jpegStub), parts[1].ImageURL)
}

func TestTogetherAIMissingKey(t *testing.T) {
	p := NewTogetherAIProvider(&ProviderConfig{Endpoint: "http://unused"})

	_, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})

	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ProviderTogetherAI, missing.Provider)
}
