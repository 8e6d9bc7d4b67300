package transformer

import (
	"net/http"
	"strings"
)

// Operation identifies one front-API operation served by the gateway.
type Operation int

const (
	// OpUnknown represents an unrecognized route.
	OpUnknown Operation = iota
	// OpChatCompletion represents POST /v1/chat/completions
	OpChatCompletion
	// OpTextCompletion represents the legacy POST /v1/completions
	OpTextCompletion
	// OpEmbeddings represents POST /v1/embeddings
	OpEmbeddings
	// OpModelList represents GET /v1/models
	OpModelList
)

// String returns the string representation of Operation
func (op Operation) String() string {
	switch op {
	case OpChatCompletion:
		return "chat_completion"
	case OpTextCompletion:
		return "text_completion"
	case OpEmbeddings:
		return "embeddings"
	case OpModelList:
		return "model_list"
	default:
		return "unknown"
	}
}

// Streamable reports whether the operation supports streaming responses.
// The legacy completions endpoint deliberately does not: a stream request
// there is rejected rather than silently buffered.
func (op Operation) Streamable() bool {
	return op == OpChatCompletion
}

// OperationDetector maps an inbound method and path to the operation it
// addresses. The /v1 surface is dispatched through a single wildcard
// route, so this is the one place route shapes are interpreted.
type OperationDetector struct{}

// NewOperationDetector creates a new OperationDetector instance
func NewOperationDetector() *OperationDetector {
	return &OperationDetector{}
}

// Detect resolves the operation for a request. The path is matched with
// its /v1 prefix stripped, so both "/v1/chat/completions" and
// "/chat/completions" (as seen by a wildcard sub-route) resolve alike.
func (d *OperationDetector) Detect(method, path string) Operation {
	normalized := strings.TrimSuffix(strings.ToLower(path), "/")
	normalized = strings.TrimPrefix(normalized, "/v1")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}

	switch normalized {
	case "/chat/completions":
		if method == http.MethodPost {
			return OpChatCompletion
		}
	case "/completions":
		if method == http.MethodPost {
			return OpTextCompletion
		}
	case "/embeddings":
		if method == http.MethodPost {
			return OpEmbeddings
		}
	case "/models":
		if method == http.MethodGet {
			return OpModelList
		}
	}
	return OpUnknown
}

// DefaultDetector is the default operation detector instance
var DefaultDetector = NewOperationDetector()

// Detect is a convenience function that uses the default detector
func Detect(method, path string) Operation {
	return DefaultDetector.Detect(method, path)
}
