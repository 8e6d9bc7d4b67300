package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"llamabridge/internal/transformer/model"
)

// EmbeddingOutbound implements the EmbeddingOutbound interface for the
// backend embeddings endpoint.
type EmbeddingOutbound struct{}

// NewEmbeddingOutbound creates a new EmbeddingOutbound instance
func NewEmbeddingOutbound() *EmbeddingOutbound {
	return &EmbeddingOutbound{}
}

type embeddingPayload struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// TransformRequest builds a backend /api/embeddings call carrying one
// input text.
func (o *EmbeddingOutbound) TransformRequest(ctx context.Context, modelTag, input, baseURL string) (*http.Request, error) {
	body, err := json.Marshal(embeddingPayload{Model: modelTag, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, buildBackendURL(baseURL, "/api/embeddings"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// embeddingResponseBody tolerates both backend shapes: a single vector
// under "embedding" or multiple vectors under "embeddings". The plural
// field stays raw until probed so degenerate nestings fall through to
// the empty fallback instead of failing the decode.
type embeddingResponseBody struct {
	Embedding  []float64       `json:"embedding"`
	Embeddings json.RawMessage `json:"embeddings"`
}

// TransformResponse extracts every vector present in the backend body,
// indexed in order. Total: a body in neither recognized shape (including
// undecodable and degenerate nested forms) yields an empty result list,
// never an error.
func (o *EmbeddingOutbound) TransformResponse(body []byte) []model.EmbeddingResult {
	var resp embeddingResponseBody
	if err := json.Unmarshal(body, &resp); err != nil {
		return []model.EmbeddingResult{}
	}

	if len(resp.Embedding) > 0 {
		return []model.EmbeddingResult{{Index: 0, Vector: resp.Embedding}}
	}

	if len(resp.Embeddings) > 0 {
		var vectors [][]float64
		if err := json.Unmarshal(resp.Embeddings, &vectors); err != nil {
			return []model.EmbeddingResult{}
		}
		results := make([]model.EmbeddingResult, 0, len(vectors))
		for i, v := range vectors {
			results = append(results, model.EmbeddingResult{Index: i, Vector: v})
		}
		return results
	}

	return []model.EmbeddingResult{}
}
