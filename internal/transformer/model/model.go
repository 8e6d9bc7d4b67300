package model

import (
	"errors"
	"strings"
)

// Generation parameter defaults applied during request normalization.
const (
	DefaultTemperature = 0.2
	DefaultTopP        = 0.9
	DefaultMaxTokens   = 512
)

// ErrMissingInput is returned when an embedding request carries no input.
var ErrMissingInput = errors.New("embedding input is required")

// ChatRequest is the canonical internal request model.
// It is built once per inbound request and owned by that request's flow.
type ChatRequest struct {
	Model    string
	Messages []Message
	Params   GenerationParams
}

// ApplyModel records the resolved backend tag and its context window.
// Called once, after model resolution; the request is not mutated afterwards.
func (r *ChatRequest) ApplyModel(tag string, contextWindow int) {
	r.Model = tag
	r.Params.ContextWindow = contextWindow
}

// PromptText collapses the conversation into a single prompt string.
// Used by the legacy generate path, which speaks prompts, not messages.
func (r *ChatRequest) PromptText() string {
	parts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}

// Message is a normalized conversation message. Content is always plain
// text here: multi-part content is flattened at the inbound boundary.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams carries the sampling parameters for one request.
// Defaults are applied field-by-field during normalization; the struct is
// treated as immutable once the request enters the upstream flow.
type GenerationParams struct {
	Temperature   float64
	TopP          float64
	MaxTokens     int
	Stream        bool
	ContextWindow int
}

// ChatResult is a complete, non-streaming backend generation result in
// canonical form.
type ChatResult struct {
	Content          string
	Done             bool
	PromptTokens     int64
	CompletionTokens int64
}

// StreamFragment is one decoded line of a streaming backend response.
// Ephemeral: it exists only while the stream is being translated.
type StreamFragment struct {
	DeltaText string
	Done      bool
}

// EmbeddingBatch is the normalized form of an embedding request.
// Inputs is never empty: a single string becomes a one-element batch and
// an empty list is coerced to a single empty string.
type EmbeddingBatch struct {
	Model  string
	Inputs []string
}

// EmbeddingResult is one embedding vector, indexed by its position in the
// original input order.
type EmbeddingResult struct {
	Index  int
	Vector []float64
}

// ModelInfo describes one model known to the backend.
type ModelInfo struct {
	Name       string
	ModifiedAt int64
	Size       int64
}
