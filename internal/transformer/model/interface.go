package model

import (
	"context"
	"net/http"
)

// Inbound is the inbound transformer interface.
// Responsible for converting front-API request bodies to the canonical
// internal format and rendering canonical results back into the front-API
// wire shape. Instances are created per request and are not shared.
type Inbound interface {
	// TransformRequest converts a front-API body to the canonical request.
	TransformRequest(body []byte) (*ChatRequest, error)

	// SetModel records the resolved model tag for response envelopes.
	SetModel(model string)

	// TransformResponse renders a complete canonical result as the
	// front-API completion envelope.
	TransformResponse(result *ChatResult) ([]byte, error)

	// TransformStream renders one stream fragment as a front-API SSE
	// frame carrying a content delta.
	TransformStream(fragment *StreamFragment) ([]byte, error)

	// DoneEvent returns the terminal SSE sentinel frame.
	DoneEvent() []byte
}

// Outbound is the outbound transformer interface.
// Responsible for converting canonical requests to backend HTTP requests
// and backend payloads back to canonical form. Implementations are
// stateless and safe for concurrent use.
type Outbound interface {
	// TransformRequest converts the canonical request to a backend HTTP
	// request against the given base URL.
	TransformRequest(ctx context.Context, request *ChatRequest, baseURL string) (*http.Request, error)

	// TransformResponse converts a complete backend response body to the
	// canonical result.
	TransformResponse(body []byte) (*ChatResult, error)

	// TransformStream converts one line of a streaming backend response
	// to a canonical fragment. Returns (nil, nil) for lines that carry
	// nothing to translate (blank lines); a decode error means the line
	// is skipped by the caller.
	TransformStream(line []byte) (*StreamFragment, error)
}

// EmbeddingInbound converts front-API embedding bodies to canonical
// batches and renders canonical results back to the front wire shape.
type EmbeddingInbound interface {
	// TransformRequest normalizes the embedding request body. A missing
	// input yields ErrMissingInput; a single string becomes a one-element
	// batch.
	TransformRequest(body []byte) (*EmbeddingBatch, error)

	// TransformResponse renders indexed results as the front-API
	// embedding list envelope.
	TransformResponse(results []EmbeddingResult, modelTag string) ([]byte, error)
}

// EmbeddingOutbound converts single embedding inputs to backend HTTP
// requests and normalizes the backend's varying response shapes.
type EmbeddingOutbound interface {
	// TransformRequest builds a backend call carrying one input text.
	TransformRequest(ctx context.Context, modelTag, input, baseURL string) (*http.Request, error)

	// TransformResponse extracts every vector present in the backend
	// body, indexed in order. Total: unrecognized or undecodable shapes
	// yield an empty slice, never an error.
	TransformResponse(body []byte) []EmbeddingResult
}

/*
Request Flow

Non-streaming:
client      -> inbound.TransformRequest(body)
            -> resolver
            -> outbound.TransformRequest(ctx, request, baseURL)
            -> channel.Execute(request)
            -> outbound.TransformResponse(body)
            -> inbound.TransformResponse(result)
                                                        -> client

Streaming:
client      -> inbound.TransformRequest(body)
            -> resolver
            -> outbound.TransformRequest(ctx, request, baseURL)
            -> channel.ExecuteStream(request)
            -> line reader -> outbound.TransformStream(line)
            -> inbound.TransformStream(fragment)
                                                        -> client
*/
