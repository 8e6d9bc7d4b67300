package ollama

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"llamabridge/internal/transformer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatOutbound_TransformRequest(t *testing.T) {
	out := NewChatOutbound()

	req, err := out.TransformRequest(context.Background(), &model.ChatRequest{
		Model:    "llama3:8b",
		Messages: []model.Message{{Role: "user", Content: "hi"}},
		Params: model.GenerationParams{
			Temperature:   0.7,
			TopP:          0.95,
			MaxTokens:     128,
			ContextWindow: 8192,
		},
	}, "http://localhost:11434")
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "http://localhost:11434/api/chat", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Empty(t, req.Header.Get("Accept"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, "llama3:8b", payload["model"])
	assert.Equal(t, false, payload["stream"])

	opts := payload["options"].(map[string]any)
	assert.Equal(t, 0.7, opts["temperature"])
	assert.Equal(t, 0.95, opts["top_p"])
	assert.Equal(t, float64(8192), opts["num_ctx"])
	assert.Equal(t, float64(128), opts["num_predict"])
}

func TestChatOutbound_TransformRequest_StreamAcceptHeader(t *testing.T) {
	out := NewChatOutbound()

	req, err := out.TransformRequest(context.Background(), &model.ChatRequest{
		Model:  "llama3:8b",
		Params: model.GenerationParams{Stream: true},
	}, "http://localhost:11434")
	require.NoError(t, err)

	assert.Equal(t, "application/x-ndjson", req.Header.Get("Accept"))
}

func TestChatOutbound_TransformRequest_TrailingSlashBaseURL(t *testing.T) {
	out := NewChatOutbound()

	req, err := out.TransformRequest(context.Background(), &model.ChatRequest{Model: "m"}, "http://localhost:11434/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/api/chat", req.URL.String())
}

func TestChatOutbound_TransformRequest_NilMessages(t *testing.T) {
	out := NewChatOutbound()

	req, err := out.TransformRequest(context.Background(), &model.ChatRequest{Model: "m"}, "http://localhost:11434")
	require.NoError(t, err)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	// nil messages must serialize as [], not null.
	assert.Contains(t, string(body), `"messages":[]`)
}

func TestChatOutbound_TransformRequest_NilRequest(t *testing.T) {
	out := NewChatOutbound()

	_, err := out.TransformRequest(context.Background(), nil, "http://localhost:11434")
	assert.Error(t, err)
}

func TestChatOutbound_TransformResponse(t *testing.T) {
	out := NewChatOutbound()

	result, err := out.TransformResponse([]byte(`{
		"message": {"role": "assistant", "content": "Hello there"},
		"done": true,
		"prompt_eval_count": 12,
		"eval_count": 5
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Hello there", result.Content)
	assert.True(t, result.Done)
	assert.Equal(t, int64(12), result.PromptTokens)
	assert.Equal(t, int64(5), result.CompletionTokens)
}

func TestChatOutbound_TransformResponse_MissingMessage(t *testing.T) {
	out := NewChatOutbound()

	result, err := out.TransformResponse([]byte(`{"done": true}`))
	require.NoError(t, err)
	assert.Empty(t, result.Content)
}

func TestChatOutbound_TransformResponse_Invalid(t *testing.T) {
	out := NewChatOutbound()

	_, err := out.TransformResponse([]byte(`<html>error page</html>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend chat response")
}

func TestChatOutbound_TransformStream(t *testing.T) {
	out := NewChatOutbound()

	frag, err := out.TransformStream([]byte(`{"message":{"content":"Hi"},"done":false}`))
	require.NoError(t, err)
	assert.Equal(t, "Hi", frag.DeltaText)
	assert.False(t, frag.Done)

	frag, err = out.TransformStream([]byte(`{"message":{"content":""},"done":true}`))
	require.NoError(t, err)
	assert.Empty(t, frag.DeltaText)
	assert.True(t, frag.Done)
}

func TestChatOutbound_TransformStream_BlankLine(t *testing.T) {
	out := NewChatOutbound()

	frag, err := out.TransformStream([]byte("  \t"))
	require.NoError(t, err)
	assert.Nil(t, frag)
}

func TestChatOutbound_TransformStream_Undecodable(t *testing.T) {
	out := NewChatOutbound()

	_, err := out.TransformStream([]byte(`{"message": truncat`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undecodable stream line")
}
