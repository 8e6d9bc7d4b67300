package openai

import (
	"encoding/json"
	"fmt"
	"time"

	"llamabridge/internal/transformer/model"

	"github.com/google/uuid"
)

// CompletionInbound implements the Inbound interface for the legacy
// completions endpoint. The prompt becomes a single user message so the
// rest of the pipeline is shared with the chat path.
type CompletionInbound struct {
	completionID string
	created      int64
	model        string
}

// NewCompletionInbound creates a new CompletionInbound instance
func NewCompletionInbound() *CompletionInbound {
	return &CompletionInbound{
		completionID: "cmpl-" + uuid.NewString(),
		created:      time.Now().Unix(),
	}
}

type completionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature"`
	TopP        *float64 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stream      *bool    `json:"stream"`
}

// TransformRequest converts a legacy completions body to the canonical
// request form.
func (c *CompletionInbound) TransformRequest(body []byte) (*model.ChatRequest, error) {
	var req completionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	return &model.ChatRequest{
		Model: req.Model,
		Messages: []model.Message{
			{Role: "user", Content: req.Prompt},
		},
		Params: buildParams(req.Temperature, req.TopP, req.MaxTokens, req.Stream),
	}, nil
}

// SetModel records the resolved model tag used in response envelopes.
func (c *CompletionInbound) SetModel(model string) {
	c.model = model
}

type completionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Usage   *model.Usage       `json:"usage,omitempty"`
}

type completionChoice struct {
	Text         string  `json:"text"`
	Index        int     `json:"index"`
	FinishReason *string `json:"finish_reason"`
}

// TransformResponse renders a complete result as the text_completion
// envelope.
func (c *CompletionInbound) TransformResponse(result *model.ChatResult) ([]byte, error) {
	finish := "stop"
	resp := completionResponse{
		ID:      c.completionID,
		Object:  "text_completion",
		Created: c.created,
		Model:   c.model,
		Choices: []completionChoice{{
			Text:         result.Content,
			Index:        0,
			FinishReason: &finish,
		}},
		Usage: &model.Usage{
			PromptTokens:     result.PromptTokens,
			CompletionTokens: result.CompletionTokens,
			TotalTokens:      result.PromptTokens + result.CompletionTokens,
		},
	}
	return json.Marshal(resp)
}

// TransformStream renders a fragment as a text_completion SSE frame. The
// endpoint currently rejects streaming before any fragment is produced;
// this keeps the transformer complete should that capability be enabled.
func (c *CompletionInbound) TransformStream(fragment *model.StreamFragment) ([]byte, error) {
	chunk := completionResponse{
		ID:      c.completionID,
		Object:  "text_completion",
		Created: c.created,
		Model:   c.model,
		Choices: []completionChoice{{
			Text:  fragment.DeltaText,
			Index: 0,
		}},
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		return nil, err
	}
	return append([]byte("data: "), append(data, []byte("\n\n")...)...), nil
}

// DoneEvent returns the terminal SSE sentinel.
func (c *CompletionInbound) DoneEvent() []byte {
	return []byte("data: [DONE]\n\n")
}
