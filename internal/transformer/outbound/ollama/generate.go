package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"llamabridge/internal/transformer/model"
)

// GenerateOutbound implements the Outbound interface for the backend
// single-prompt generate endpoint, used by the legacy completions path.
type GenerateOutbound struct{}

// NewGenerateOutbound creates a new GenerateOutbound instance
func NewGenerateOutbound() *GenerateOutbound {
	return &GenerateOutbound{}
}

type generatePayload struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options optionsPayload `json:"options"`
}

// TransformRequest converts the canonical request to a backend
// /api/generate HTTP request. The conversation collapses to one prompt.
func (o *GenerateOutbound) TransformRequest(ctx context.Context, request *model.ChatRequest, baseURL string) (*http.Request, error) {
	if request == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	payload := generatePayload{
		Model:   request.Model,
		Prompt:  request.PromptText(),
		Stream:  request.Params.Stream,
		Options: buildOptions(request.Params),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, buildBackendURL(baseURL, "/api/generate"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// generateResponseBody is the backend generate response shape; generated
// text rides in the response field rather than a message object.
type generateResponseBody struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int64  `json:"prompt_eval_count"`
	EvalCount       int64  `json:"eval_count"`
}

// TransformResponse converts a complete backend generate body to the
// canonical result.
func (o *GenerateOutbound) TransformResponse(body []byte) (*model.ChatResult, error) {
	var resp generateResponseBody
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid backend generate response: %w", err)
	}

	return &model.ChatResult{
		Content:          resp.Response,
		Done:             resp.Done,
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
	}, nil
}

// TransformStream converts one NDJSON generate line to a canonical
// fragment. The front endpoint served by this transformer rejects
// streaming today; the method keeps the transformer complete.
func (o *GenerateOutbound) TransformStream(line []byte) (*model.StreamFragment, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var frag generateResponseBody
	if err := json.Unmarshal(trimmed, &frag); err != nil {
		return nil, fmt.Errorf("undecodable stream line: %w", err)
	}

	return &model.StreamFragment{DeltaText: frag.Response, Done: frag.Done}, nil
}
