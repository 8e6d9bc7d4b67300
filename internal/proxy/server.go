// Package proxy is the gateway's front door: it accepts OpenAI-style
// requests, drives the Ollama backend through the transformer layer, and
// relays buffered or streamed results back to the client.
package proxy

import (
	"time"

	"llamabridge/internal/channel"
	app_errors "llamabridge/internal/errors"
	"llamabridge/internal/metrics"
	"llamabridge/internal/models"
	"llamabridge/internal/response"
	"llamabridge/internal/services"
	"llamabridge/internal/transformer"
	"llamabridge/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// ProxyServer dispatches front-API traffic to per-operation handlers.
type ProxyServer struct {
	channel           *channel.OllamaChannel
	resolver          *services.ModelResolver
	catalog           *services.ModelCatalog
	requestLogService *services.RequestLogService
	metrics           *metrics.Metrics
	detector          *transformer.OperationDetector
}

// NewProxyServer creates the proxy server.
func NewProxyServer(
	ch *channel.OllamaChannel,
	resolver *services.ModelResolver,
	catalog *services.ModelCatalog,
	requestLogService *services.RequestLogService,
	m *metrics.Metrics,
) *ProxyServer {
	return &ProxyServer{
		channel:           ch,
		resolver:          resolver,
		catalog:           catalog,
		requestLogService: requestLogService,
		metrics:           m,
		detector:          transformer.NewOperationDetector(),
	}
}

// Handle is the entry point for all /v1 traffic.
func (ps *ProxyServer) Handle(c *gin.Context) {
	switch ps.detector.Detect(c.Request.Method, c.Request.URL.Path) {
	case transformer.OpChatCompletion:
		ps.handleChatCompletion(c)
	case transformer.OpTextCompletion:
		ps.handleTextCompletion(c)
	case transformer.OpEmbeddings:
		ps.handleEmbeddings(c)
	case transformer.OpModelList:
		ps.handleModelList(c)
	default:
		response.Error(c, app_errors.ErrRouteNotFound)
	}
}

// requestOutcome carries everything logRequest needs once a request has
// finished, however it finished.
type requestOutcome struct {
	operation        string
	requestedModel   string
	resolvedModel    string
	statusCode       int
	isStream         bool
	promptTokens     int64
	completionTokens int64
	errorCode        string
	params           datatypes.JSONMap
}

// logRequest records metrics and queues the request log row.
func (ps *ProxyServer) logRequest(c *gin.Context, startTime time.Time, outcome requestOutcome) {
	duration := time.Since(startTime)

	if ps.metrics != nil {
		ps.metrics.RecordRequest(outcome.operation, outcome.statusCode, duration)
	}

	if ps.requestLogService == nil {
		return
	}

	ps.requestLogService.Record(&models.RequestLog{
		Operation:        outcome.operation,
		RequestedModel:   utils.TruncateString(outcome.requestedModel, 128),
		ResolvedModel:    utils.TruncateString(outcome.resolvedModel, 128),
		StatusCode:       outcome.statusCode,
		IsStream:         outcome.isStream,
		DurationMs:       duration.Milliseconds(),
		PromptTokens:     outcome.promptTokens,
		CompletionTokens: outcome.completionTokens,
		ErrorCode:        outcome.errorCode,
		Params:           outcome.params,
		ClientIP:         c.ClientIP(),
		UserAgent:        utils.TruncateString(c.Request.UserAgent(), 256),
	})
}
