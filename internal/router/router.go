// Package router assembles the HTTP surface: middleware chain, health
// and metrics endpoints, and the /v1 wildcard into the proxy.
package router

import (
	"llamabridge/internal/config"
	app_errors "llamabridge/internal/errors"
	"llamabridge/internal/metrics"
	"llamabridge/internal/middleware"
	"llamabridge/internal/proxy"
	"llamabridge/internal/response"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// New builds the gin engine.
func New(cfg *config.Manager, proxyServer *proxy.ProxyServer, m *metrics.Metrics) *gin.Engine {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Recovery())

	if cfg.EnableCORS {
		engine.Use(middleware.CORS(cfg.AllowedOrigins))
	}

	if cfg.EnableGzip {
		// The chat path can stream SSE; compressing it would buffer events
		// past their flush. Prometheus negotiates its own encoding.
		engine.Use(gzip.Gzip(gzip.DefaultCompression,
			gzip.WithExcludedPaths([]string{"/v1/chat/completions", "/metrics"})))
	}

	engine.GET("/healthz", proxyServer.HandleHealth)
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	engine.Any("/v1/*path", proxyServer.Handle)

	engine.NoRoute(func(c *gin.Context) {
		response.Error(c, app_errors.ErrRouteNotFound)
	})

	return engine
}
