package proxy

import (
	"context"
	"io"
	"net/http"
	"time"

	"llamabridge/internal/transformer/outbound/ollama"

	"github.com/gin-gonic/gin"
)

const healthProbeTimeout = 2 * time.Second

// HandleHealth reports liveness plus the configured backend address and
// whether the backend currently answers. The gateway itself is healthy
// even when the backend is down, so the status is always 200.
func (ps *ProxyServer) HandleHealth(c *gin.Context) {
	reachable := ps.probeBackend(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"backend":           ps.channel.BaseURL(),
		"backend_reachable": reachable,
		"timestamp":         time.Now().Unix(),
	})
}

func (ps *ProxyServer) probeBackend(parent context.Context) bool {
	ctx, cancel := context.WithTimeout(parent, healthProbeTimeout)
	defer cancel()

	req, err := ollama.NewTagsRequest(ctx, ps.channel.BaseURL())
	if err != nil {
		return false
	}

	resp, err := ps.channel.Execute(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return isSuccessStatus(resp.StatusCode)
}
