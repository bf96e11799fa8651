package llm

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// sseDelta is the chunk shape shared by OpenAI-compatible streaming APIs
// (OpenAI, TogetherAI, LM Studio).
type sseDelta struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// decodeSSEStream reads an OpenAI-style server-sent-event stream, calling
// onToken for each non-empty content delta, and returns the accumulated text.
// The stream ends at EOF or the "[DONE]" sentinel.
func decodeSSEStream(body io.Reader, onToken func(token string)) (string, error) {
	var full strings.Builder
	var totalBytes int64

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk sseDelta
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return full.String(), fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		token := chunk.Choices[0].Delta.Content
		if token == "" {
			continue
		}

		totalBytes += int64(len(token))
		if totalBytes > MaxStreamedResponseSize {
			return full.String(), fmt.Errorf("response size exceeded limit (%d bytes)", MaxStreamedResponseSize)
		}

		full.WriteString(token)
		if onToken != nil {
			onToken(token)
		}
	}

	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read stream: %w", err)
	}

	return full.String(), nil
}
