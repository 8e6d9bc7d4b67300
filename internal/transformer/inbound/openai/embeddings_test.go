package openai

import (
	"encoding/json"
	"testing"

	"llamabridge/internal/transformer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingInbound_TransformRequest_SingleString(t *testing.T) {
	in := NewEmbeddingInbound()

	batch, err := in.TransformRequest([]byte(`{"model":"llama3","input":"hello world"}`))
	require.NoError(t, err)

	assert.Equal(t, "llama3", batch.Model)
	assert.Equal(t, []string{"hello world"}, batch.Inputs)
}

func TestEmbeddingInbound_TransformRequest_StringList(t *testing.T) {
	in := NewEmbeddingInbound()

	batch, err := in.TransformRequest([]byte(`{"model":"llama3","input":["a","b","c"]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, batch.Inputs)
}

func TestEmbeddingInbound_TransformRequest_MissingInput(t *testing.T) {
	in := NewEmbeddingInbound()

	for name, body := range map[string]string{
		"absent": `{"model":"llama3"}`,
		"null":   `{"model":"llama3","input":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := in.TransformRequest([]byte(body))
			assert.ErrorIs(t, err, model.ErrMissingInput)
		})
	}
}

func TestEmbeddingInbound_TransformRequest_EmptyList(t *testing.T) {
	in := NewEmbeddingInbound()

	batch, err := in.TransformRequest([]byte(`{"model":"llama3","input":[]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{""}, batch.Inputs)
}

func TestEmbeddingInbound_TransformRequest_NonStringElements(t *testing.T) {
	in := NewEmbeddingInbound()

	batch, err := in.TransformRequest([]byte(`{"model":"llama3","input":["text",42,true]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"text", "42", "true"}, batch.Inputs)
}

func TestEmbeddingInbound_TransformRequest_InvalidInputType(t *testing.T) {
	in := NewEmbeddingInbound()

	_, err := in.TransformRequest([]byte(`{"model":"llama3","input":{"nested":"object"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input type")
}

func TestEmbeddingInbound_TransformResponse(t *testing.T) {
	in := NewEmbeddingInbound()

	body, err := in.TransformResponse([]model.EmbeddingResult{
		{Index: 0, Vector: []float64{0.1, 0.2}},
		{Index: 1, Vector: []float64{0.3}},
	}, "llama3:8b")
	require.NoError(t, err)

	var resp struct {
		Object string `json:"object"`
		Data   []struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
		Model string `json:"model"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))

	assert.Equal(t, "list", resp.Object)
	assert.Equal(t, "llama3:8b", resp.Model)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 0, resp.Data[0].Index)
	assert.Equal(t, []float64{0.1, 0.2}, resp.Data[0].Embedding)
	assert.Equal(t, 1, resp.Data[1].Index)
}

func TestEmbeddingInbound_TransformResponse_NilVector(t *testing.T) {
	in := NewEmbeddingInbound()

	body, err := in.TransformResponse([]model.EmbeddingResult{{Index: 0, Vector: nil}}, "llama3:8b")
	require.NoError(t, err)

	// A nil vector must serialize as [], not null.
	assert.Contains(t, string(body), `"embedding":[]`)
}
