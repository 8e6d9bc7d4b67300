package openai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"llamabridge/internal/transformer/model"
)

// EmbeddingInbound implements the EmbeddingInbound interface for the
// embeddings endpoint.
type EmbeddingInbound struct{}

// NewEmbeddingInbound creates a new EmbeddingInbound instance
func NewEmbeddingInbound() *EmbeddingInbound {
	return &EmbeddingInbound{}
}

type embeddingRequest struct {
	Model string          `json:"model"`
	Input json.RawMessage `json:"input"`
}

// TransformRequest normalizes the embedding request body. A null or
// absent input is an error; a single string becomes a one-element batch;
// a list is used as-is with each element coerced to text, an empty list
// collapsing to a single empty string.
func (e *EmbeddingInbound) TransformRequest(body []byte) (*model.EmbeddingBatch, error) {
	var req embeddingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if len(req.Input) == 0 || bytes.Equal(bytes.TrimSpace(req.Input), []byte("null")) {
		return nil, model.ErrMissingInput
	}

	var single string
	if err := json.Unmarshal(req.Input, &single); err == nil {
		return &model.EmbeddingBatch{Model: req.Model, Inputs: []string{single}}, nil
	}

	var list []any
	if err := json.Unmarshal(req.Input, &list); err != nil {
		return nil, fmt.Errorf("invalid input type: expected string or array")
	}

	inputs := make([]string, 0, len(list))
	for _, elem := range list {
		inputs = append(inputs, coerceToText(elem))
	}
	if len(inputs) == 0 {
		inputs = []string{""}
	}

	return &model.EmbeddingBatch{Model: req.Model, Inputs: inputs}, nil
}

// coerceToText renders a decoded JSON value as the text sent upstream.
func coerceToText(elem any) string {
	if s, ok := elem.(string); ok {
		return s
	}
	data, err := json.Marshal(elem)
	if err != nil {
		return ""
	}
	return string(data)
}

type embeddingListResponse struct {
	Object string           `json:"object"`
	Data   []embeddingEntry `json:"data"`
	Model  string           `json:"model"`
	Usage  embeddingUsage   `json:"usage"`
}

type embeddingEntry struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embeddingUsage struct {
	PromptTokens int64 `json:"prompt_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// TransformResponse renders indexed results as the embedding list
// envelope. Results are expected in input order; nil vectors render as
// empty arrays.
func (e *EmbeddingInbound) TransformResponse(results []model.EmbeddingResult, modelTag string) ([]byte, error) {
	entries := make([]embeddingEntry, 0, len(results))
	for _, r := range results {
		vector := r.Vector
		if vector == nil {
			vector = []float64{}
		}
		entries = append(entries, embeddingEntry{
			Object:    "embedding",
			Index:     r.Index,
			Embedding: vector,
		})
	}

	return json.Marshal(embeddingListResponse{
		Object: "list",
		Data:   entries,
		Model:  modelTag,
	})
}
