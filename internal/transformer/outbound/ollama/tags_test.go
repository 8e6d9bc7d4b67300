package ollama

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTagsRequest(t *testing.T) {
	req, err := NewTagsRequest(context.Background(), "http://localhost:11434/")
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "http://localhost:11434/api/tags", req.URL.String())
}

func TestParseTagsResponse(t *testing.T) {
	infos, err := ParseTagsResponse([]byte(`{
		"models": [
			{"name": "llama3:8b", "modified_at": "2024-05-01T10:00:00Z", "size": 4661224676},
			{"name": "mistral:7b", "size": 4109865159}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "llama3:8b", infos[0].Name)
	assert.Equal(t, int64(4661224676), infos[0].Size)
	assert.NotZero(t, infos[0].ModifiedAt)

	assert.Equal(t, "mistral:7b", infos[1].Name)
	assert.Zero(t, infos[1].ModifiedAt)
}

func TestParseTagsResponse_Empty(t *testing.T) {
	infos, err := ParseTagsResponse([]byte(`{"models": []}`))
	require.NoError(t, err)
	assert.NotNil(t, infos)
	assert.Empty(t, infos)
}

func TestParseTagsResponse_Invalid(t *testing.T) {
	_, err := ParseTagsResponse([]byte(`<html>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend model listing")
}
