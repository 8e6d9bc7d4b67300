package proxy

import (
	"net/http"
	"time"

	"llamabridge/internal/models"
	"llamabridge/internal/response"

	"github.com/gin-gonic/gin"
)

// handleModelList serves the installed backend models as an OpenAI model
// list. The catalog caches the backend call briefly.
func (ps *ProxyServer) handleModelList(c *gin.Context) {
	startTime := time.Now()

	infos, apiErr := ps.catalog.List(c.Request.Context())
	if apiErr != nil {
		if ps.metrics != nil {
			if apiErr.Code == "upstream_unreachable" {
				ps.metrics.RecordUpstreamFailure("unreachable")
			} else {
				ps.metrics.RecordUpstreamFailure("error")
			}
		}
		response.Error(c, apiErr)
		ps.logRequest(c, startTime, requestOutcome{
			operation:  models.OperationModelList,
			statusCode: apiErr.HTTPStatus,
			errorCode:  apiErr.Code,
		})
		return
	}

	data := make([]gin.H, 0, len(infos))
	for _, info := range infos {
		data = append(data, gin.H{
			"id":       info.Name,
			"object":   "model",
			"created":  info.ModifiedAt,
			"owned_by": "library",
		})
	}

	response.JSON(c, gin.H{
		"object": "list",
		"data":   data,
	})

	ps.logRequest(c, startTime, requestOutcome{
		operation:  models.OperationModelList,
		statusCode: http.StatusOK,
	})
}
