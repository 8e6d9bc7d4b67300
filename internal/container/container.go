// Package container wires the application object graph.
package container

import (
	"llamabridge/internal/channel"
	"llamabridge/internal/config"
	"llamabridge/internal/db"
	"llamabridge/internal/metrics"
	"llamabridge/internal/proxy"
	"llamabridge/internal/router"
	"llamabridge/internal/services"
	"llamabridge/internal/store"

	"go.uber.org/dig"
)

// BuildContainer registers every application constructor.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		config.NewManager,
		db.NewDB,
		store.NewStore,
		channel.NewOllamaChannel,
		metrics.New,
		services.NewModelResolver,
		services.NewModelCatalog,
		services.NewRequestLogService,
		newAliasWatcher,
		proxy.NewProxyServer,
		router.New,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

// newAliasWatcher adapts the watcher constructor to the container; a nil
// watcher means no alias file is configured.
func newAliasWatcher(cfg *config.Manager, resolver *services.ModelResolver) (*services.AliasWatcher, error) {
	return services.NewAliasWatcher(cfg.ModelAliasesFile, resolver)
}
