package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"llamabridge/internal/transformer/model"
)

// NewTagsRequest builds the backend model-listing call.
func NewTagsRequest(ctx context.Context, baseURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, buildBackendURL(baseURL, "/api/tags"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	return req, nil
}

type tagsResponseBody struct {
	Models []tagEntry `json:"models"`
}

type tagEntry struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

// ParseTagsResponse decodes the backend model listing.
func ParseTagsResponse(body []byte) ([]model.ModelInfo, error) {
	var resp tagsResponseBody
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid backend model listing: %w", err)
	}

	infos := make([]model.ModelInfo, 0, len(resp.Models))
	for _, entry := range resp.Models {
		info := model.ModelInfo{Name: entry.Name, Size: entry.Size}
		if !entry.ModifiedAt.IsZero() {
			info.ModifiedAt = entry.ModifiedAt.Unix()
		}
		infos = append(infos, info)
	}
	return infos, nil
}
