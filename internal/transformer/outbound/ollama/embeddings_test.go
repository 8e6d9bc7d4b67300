package ollama

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEmbeddingOutbound_TransformRequest(t *testing.T) {
	out := NewEmbeddingOutbound()

	req, err := out.TransformRequest(context.Background(), "llama3:8b", "embed this", "http://localhost:11434")
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "http://localhost:11434/api/embeddings", req.URL.String())

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "llama3:8b", payload["model"])
	assert.Equal(t, "embed this", payload["input"])
}

func TestEmbeddingOutbound_TransformResponse_SingularShape(t *testing.T) {
	out := NewEmbeddingOutbound()

	results := out.TransformResponse([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, results[0].Vector)
}

func TestEmbeddingOutbound_TransformResponse_PluralShape(t *testing.T) {
	out := NewEmbeddingOutbound()

	results := out.TransformResponse([]byte(`{"embeddings":[[1,2],[3,4],[5,6]]}`))
	require.Len(t, results, 3)
	for i, want := range [][]float64{{1, 2}, {3, 4}, {5, 6}} {
		assert.Equal(t, i, results[i].Index)
		assert.Equal(t, want, results[i].Vector)
	}
}

func TestEmbeddingOutbound_TransformResponse_Unrecognized(t *testing.T) {
	out := NewEmbeddingOutbound()

	for name, body := range map[string]string{
		"undecodable":    `garbage`,
		"empty object":   `{}`,
		"nested too far": `{"embeddings":[[[1,2]]]}`,
		"wrong type":     `{"embedding":"not a vector"}`,
	} {
		t.Run(name, func(t *testing.T) {
			results := out.TransformResponse([]byte(body))
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestEmbeddingOutbound_TransformResponse_PluralIndexing(t *testing.T) {
	out := NewEmbeddingOutbound()

	rapid.Check(t, func(t *rapid.T) {
		vectors := rapid.SliceOfN(rapid.SliceOfN(rapid.Float64Range(-10, 10), 1, 8), 1, 16).Draw(t, "vectors")

		body, err := json.Marshal(map[string]any{"embeddings": vectors})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		results := out.TransformResponse(body)
		if len(results) != len(vectors) {
			t.Fatalf("got %d results for %d vectors", len(results), len(vectors))
		}
		for i, r := range results {
			if r.Index != i {
				t.Fatalf("result %d carries index %d", i, r.Index)
			}
			if len(r.Vector) != len(vectors[i]) {
				t.Fatalf("result %d has %d dims, want %d", i, len(r.Vector), len(vectors[i]))
			}
		}
	})
}
