// Package orchestrator composes the design-to-code pipeline: input
// validation, cache lookup, prompt building, provider dispatch, response
// parsing, and cache population.
package orchestrator

import (
	"errors"
	"time"

	"github.com/pixelsmith/pixelsmith/internal/llm"
)

// ErrInvalidInput is returned when a call carries neither an image nor any
// text to work from.
var ErrInvalidInput = errors.New("design input requires an image or a text description")

// ModelConfig selects the provider and model for one request. Callers
// construct a new value to change provider or model; zero Temperature and
// MaxTokens mean "use the provider-tuned defaults".
type ModelConfig struct {
	Provider    string           `json:"provider"`
	Model       string           `json:"model"`
	Temperature float64          `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Credentials *llm.Credentials `json:"-"`
}

// DesignInput is the user's design: a screenshot image, a text description,
// or both. At least one must be present.
type DesignInput struct {
	// Image is a raw JPEG payload, or nil.
	Image []byte
	// Text is a free-text description or clarification, or empty.
	Text string
}

// Metadata records where and when an analysis was produced.
type Metadata struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	ResultID  string    `json:"result_id"`
}

// AnalysisResult is the output of one analysis call. Immutable once
// returned; cache hits return the original value, including its ResultID.
type AnalysisResult struct {
	AnalysisText string   `json:"analysis_text"`
	Metadata     Metadata `json:"metadata"`
}

// ChunkKind tags a stream chunk as content or a surfaced error.
type ChunkKind string

const (
	ChunkData  ChunkKind = "data"
	ChunkError ChunkKind = "error"
)

// StreamChunk is one element of a streaming analysis. Errors arrive as
// tagged chunks on the same channel rather than being folded into the text,
// so callers never have to string-sniff for failures.
type StreamChunk struct {
	Kind ChunkKind
	Text string
	Err  error
}
