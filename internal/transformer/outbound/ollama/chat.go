package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"llamabridge/internal/transformer/model"
)

// ChatOutbound implements the Outbound interface for the backend chat
// endpoint. Stateless; safe for concurrent use.
type ChatOutbound struct{}

// NewChatOutbound creates a new ChatOutbound instance
func NewChatOutbound() *ChatOutbound {
	return &ChatOutbound{}
}

// chatPayload is the backend chat request body. Sampling parameters ride
// in the options object; num_ctx carries the resolved context window and
// num_predict the output token cap.
type chatPayload struct {
	Model    string          `json:"model"`
	Messages []model.Message `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  optionsPayload  `json:"options"`
}

type optionsPayload struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumCtx      int     `json:"num_ctx"`
	NumPredict  int     `json:"num_predict"`
}

// TransformRequest converts the canonical request to a backend /api/chat
// HTTP request.
func (o *ChatOutbound) TransformRequest(ctx context.Context, request *model.ChatRequest, baseURL string) (*http.Request, error) {
	if request == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	payload := chatPayload{
		Model:    request.Model,
		Messages: request.Messages,
		Stream:   request.Params.Stream,
		Options:  buildOptions(request.Params),
	}
	if payload.Messages == nil {
		payload.Messages = []model.Message{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, buildBackendURL(baseURL, "/api/chat"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if request.Params.Stream {
		req.Header.Set("Accept", "application/x-ndjson")
	}

	return req, nil
}

// chatResponseBody is the backend chat response shape, shared by the
// buffered body and each streaming fragment.
type chatResponseBody struct {
	Message         *chatResponseMessage `json:"message"`
	Done            bool                 `json:"done"`
	PromptEvalCount int64                `json:"prompt_eval_count"`
	EvalCount       int64                `json:"eval_count"`
}

type chatResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TransformResponse converts a complete backend chat body to the
// canonical result. A missing message or content field is empty text,
// not an error.
func (o *ChatOutbound) TransformResponse(body []byte) (*model.ChatResult, error) {
	var resp chatResponseBody
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid backend chat response: %w", err)
	}

	result := &model.ChatResult{
		Done:             resp.Done,
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
	}
	if resp.Message != nil {
		result.Content = resp.Message.Content
	}
	return result, nil
}

// TransformStream converts one NDJSON line to a canonical fragment.
// Blank lines yield (nil, nil); an undecodable line yields an error and
// is skipped by the caller without aborting the stream.
func (o *ChatOutbound) TransformStream(line []byte) (*model.StreamFragment, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var frag chatResponseBody
	if err := json.Unmarshal(trimmed, &frag); err != nil {
		return nil, fmt.Errorf("undecodable stream line: %w", err)
	}

	out := &model.StreamFragment{Done: frag.Done}
	if frag.Message != nil {
		out.DeltaText = frag.Message.Content
	}
	return out, nil
}

// buildBackendURL joins the backend base URL with an API path.
func buildBackendURL(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + path
}

func buildOptions(params model.GenerationParams) optionsPayload {
	return optionsPayload{
		Temperature: params.Temperature,
		TopP:        params.TopP,
		NumCtx:      params.ContextWindow,
		NumPredict:  params.MaxTokens,
	}
}
