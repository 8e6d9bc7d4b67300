package services

import (
	"context"
	"encoding/json"
	"time"

	"llamabridge/internal/channel"
	"llamabridge/internal/config"
	app_errors "llamabridge/internal/errors"
	"llamabridge/internal/store"
	"llamabridge/internal/transformer/model"
	"llamabridge/internal/transformer/outbound/ollama"

	"github.com/sirupsen/logrus"
)

const catalogCacheKey = "models:catalog"

// ModelCatalog lists the models installed on the backend, caching the
// listing briefly so bursts of /v1/models calls do not hammer the
// backend's tag endpoint.
type ModelCatalog struct {
	channel *channel.OllamaChannel
	store   store.Store
	ttl     time.Duration
}

// NewModelCatalog creates the catalog service.
func NewModelCatalog(cfg *config.Manager, ch *channel.OllamaChannel, st store.Store) *ModelCatalog {
	return &ModelCatalog{
		channel: ch,
		store:   st,
		ttl:     cfg.ModelCatalogTTL,
	}
}

// List returns the installed models, from cache when fresh.
func (c *ModelCatalog) List(ctx context.Context) ([]model.ModelInfo, *app_errors.APIError) {
	if cached, err := c.store.Get(catalogCacheKey); err == nil {
		var infos []model.ModelInfo
		if err := json.Unmarshal(cached, &infos); err == nil {
			return infos, nil
		}
		// Unreadable cache entry: drop it and refetch.
		c.store.Delete(catalogCacheKey)
	}

	infos, apiErr := c.fetch(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	if encoded, err := json.Marshal(infos); err == nil {
		if err := c.store.Set(catalogCacheKey, encoded, c.ttl); err != nil {
			logrus.WithError(err).Warn("Failed to cache model catalog")
		}
	}

	return infos, nil
}

// Invalidate discards the cached listing.
func (c *ModelCatalog) Invalidate() {
	c.store.Delete(catalogCacheKey)
}

func (c *ModelCatalog) fetch(ctx context.Context) ([]model.ModelInfo, *app_errors.APIError) {
	req, err := ollama.NewTagsRequest(ctx, c.channel.BaseURL())
	if err != nil {
		return nil, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error())
	}

	resp, err := c.channel.Execute(req)
	if err != nil {
		if apiErr, ok := err.(*app_errors.APIError); ok {
			return nil, apiErr
		}
		return nil, app_errors.NewUpstreamUnreachable(err)
	}

	body, err := c.channel.ReadResponseBody(resp)
	if err != nil {
		return nil, app_errors.NewUpstreamUnreachable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, app_errors.NewUpstreamError(resp.StatusCode, body)
	}

	infos, err := ollama.ParseTagsResponse(body)
	if err != nil {
		return nil, app_errors.NewAPIError(app_errors.ErrUpstreamError, err.Error())
	}

	return infos, nil
}
