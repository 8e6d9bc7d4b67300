package openai

import (
	"encoding/json"
	"fmt"
	"time"

	"llamabridge/internal/transformer/model"

	"github.com/google/uuid"
)

// ChatInbound implements the Inbound interface for the chat completions
// endpoint. One instance serves one request: the completion id and
// timestamp are fixed at construction so every rendered envelope and
// stream chunk of a response carries the same identity.
type ChatInbound struct {
	completionID string
	created      int64
	model        string
}

// NewChatInbound creates a new ChatInbound instance
func NewChatInbound() *ChatInbound {
	return &ChatInbound{
		completionID: "chatcmpl-" + uuid.NewString(),
		created:      time.Now().Unix(),
	}
}

// chatCompletionRequest is the front wire shape, decoded once. Absent
// optional fields stay nil and receive defaults during normalization.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature"`
	TopP        *float64      `json:"top_p"`
	MaxTokens   *int          `json:"max_tokens"`
	Stream      *bool         `json:"stream"`
}

type chatMessage struct {
	Role    string               `json:"role"`
	Content model.MessageContent `json:"content"`
}

// TransformRequest converts a chat completions body to the canonical
// request. Message content is flattened to plain text here; an absent
// messages field yields an empty list, not an error.
func (c *ChatInbound) TransformRequest(body []byte) (*model.ChatRequest, error) {
	var req chatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	messages := make([]model.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, model.Message{
			Role:    m.Role,
			Content: m.Content.Flatten(),
		})
	}

	return &model.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Params:   buildParams(req.Temperature, req.TopP, req.MaxTokens, req.Stream),
	}, nil
}

// SetModel records the resolved model tag used in response envelopes.
func (c *ChatInbound) SetModel(model string) {
	c.model = model
}

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *model.Usage `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int              `json:"index"`
	Message      *responseMessage `json:"message,omitempty"`
	Delta        *deltaPayload    `json:"delta,omitempty"`
	FinishReason *string          `json:"finish_reason"`
}

type responseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deltaPayload struct {
	Content string `json:"content,omitempty"`
}

// TransformResponse renders a complete result as the chat completion
// envelope: a single choice with finish reason "stop".
func (c *ChatInbound) TransformResponse(result *model.ChatResult) ([]byte, error) {
	finish := "stop"
	resp := chatCompletionResponse{
		ID:      c.completionID,
		Object:  "chat.completion",
		Created: c.created,
		Model:   c.model,
		Choices: []chatChoice{{
			Index:        0,
			Message:      &responseMessage{Role: "assistant", Content: result.Content},
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

// TransformStream renders one fragment as an SSE frame carrying a content
// delta with a null finish reason.
func (c *ChatInbound) TransformStream(fragment *model.StreamFragment) ([]byte, error) {
	chunk := chatCompletionResponse{
		ID:      c.completionID,
		Object:  "chat.completion.chunk",
		Created: c.created,
		Model:   c.model,
		Choices: []chatChoice{{
			Index: 0,
			Delta: &deltaPayload{Content: fragment.DeltaText},
		}},
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		return nil, err
	}

	// SSE frame: "data: {json}\n\n"
	return append([]byte("data: "), append(data, []byte("\n\n")...)...), nil
}

// DoneEvent returns the terminal SSE sentinel.
func (c *ChatInbound) DoneEvent() []byte {
	return []byte("data: [DONE]\n\n")
}

// buildParams applies per-field defaults. Absence of any one field never
// fails the request.
func buildParams(temperature, topP *float64, maxTokens *int, stream *bool) model.GenerationParams {
	params := model.GenerationParams{
		Temperature: model.DefaultTemperature,
		TopP:        model.DefaultTopP,
		MaxTokens:   model.DefaultMaxTokens,
	}
	if temperature != nil {
		params.Temperature = *temperature
	}
	if topP != nil {
		params.TopP = *topP
	}
	if maxTokens != nil {
		params.MaxTokens = *maxTokens
	}
	if stream != nil {
		params.Stream = *stream
	}
	return params
}
