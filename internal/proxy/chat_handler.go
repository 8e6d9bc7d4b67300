package proxy

import (
	"io"
	"net/http"
	"time"

	app_errors "llamabridge/internal/errors"
	"llamabridge/internal/models"
	"llamabridge/internal/response"
	"llamabridge/internal/streamio"
	"llamabridge/internal/transformer/inbound"
	"llamabridge/internal/transformer/model"
	"llamabridge/internal/transformer/outbound"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (ps *ProxyServer) handleChatCompletion(c *gin.Context) {
	ps.handleGeneration(c, models.OperationChatCompletion, inbound.InboundTypeChatCompletion, outbound.OutboundTypeOllamaChat, true)
}

func (ps *ProxyServer) handleTextCompletion(c *gin.Context) {
	ps.handleGeneration(c, models.OperationTextCompletion, inbound.InboundTypeTextCompletion, outbound.OutboundTypeOllamaGenerate, false)
}

// handleGeneration runs the shared flow for both generation endpoints:
// normalize the request, resolve the model, call the backend, translate
// the result back out.
func (ps *ProxyServer) handleGeneration(
	c *gin.Context,
	operation string,
	inboundType inbound.InboundType,
	outboundType outbound.OutboundType,
	streamable bool,
) {
	startTime := time.Now()

	body, ok := ps.readRequestBody(c)
	if !ok {
		ps.logRequest(c, startTime, requestOutcome{
			operation:  operation,
			statusCode: http.StatusBadRequest,
			errorCode:  app_errors.ErrMalformedRequest.Code,
		})
		return
	}

	in := inbound.GetInbound(inboundType)
	out := outbound.GetOutbound(outboundType)
	if in == nil || out == nil {
		response.Error(c, app_errors.ErrInternalServer)
		return
	}

	request, err := in.TransformRequest(body)
	if err != nil {
		apiErr := app_errors.NewAPIError(app_errors.ErrMalformedRequest, err.Error())
		response.Error(c, apiErr)
		ps.logRequest(c, startTime, requestOutcome{
			operation:  operation,
			statusCode: apiErr.HTTPStatus,
			errorCode:  apiErr.Code,
		})
		return
	}

	requestedModel := request.Model
	isStream := request.Params.Stream

	// Refuse before touching the backend: buffering a stream request
	// would hand the caller the wrong response shape.
	if isStream && !streamable {
		response.Error(c, app_errors.ErrStreamNotSupported)
		ps.logRequest(c, startTime, requestOutcome{
			operation:      operation,
			requestedModel: requestedModel,
			statusCode:     app_errors.ErrStreamNotSupported.HTTPStatus,
			isStream:       true,
			errorCode:      app_errors.ErrStreamNotSupported.Code,
		})
		return
	}

	resolved := ps.resolver.Resolve(requestedModel)
	request.ApplyModel(resolved, ps.resolver.ContextWindow(resolved))
	in.SetModel(resolved)

	upstreamReq, err := out.TransformRequest(c.Request.Context(), request, ps.channel.BaseURL())
	if err != nil {
		logrus.WithError(err).Error("Failed to build backend request")
		response.Error(c, app_errors.ErrInternalServer)
		ps.logRequest(c, startTime, requestOutcome{
			operation:      operation,
			requestedModel: requestedModel,
			resolvedModel:  resolved,
			statusCode:     http.StatusInternalServerError,
			isStream:       isStream,
			errorCode:      app_errors.ErrInternalServer.Code,
		})
		return
	}

	outcome := requestOutcome{
		operation:      operation,
		requestedModel: requestedModel,
		resolvedModel:  resolved,
		isStream:       isStream,
		params:         paramsMap(request.Params),
	}

	if isStream {
		ps.executeStreaming(c, startTime, outcome, upstreamReq, in, out)
	} else {
		ps.executeBuffered(c, startTime, outcome, upstreamReq, in, out)
	}
}

// executeBuffered performs the non-streaming backend call and renders the
// complete completion envelope.
func (ps *ProxyServer) executeBuffered(
	c *gin.Context,
	startTime time.Time,
	outcome requestOutcome,
	upstreamReq *http.Request,
	in model.Inbound,
	out model.Outbound,
) {
	resp, err := ps.channel.Execute(upstreamReq)
	if err != nil {
		apiErr := ps.failUpstream(c, err)
		outcome.statusCode = apiErr.HTTPStatus
		outcome.errorCode = apiErr.Code
		ps.logRequest(c, startTime, outcome)
		return
	}

	body, err := ps.channel.ReadResponseBody(resp)
	if err != nil {
		logUpstreamError("reading backend response", err)
		apiErr := ps.failUpstream(c, err)
		outcome.statusCode = apiErr.HTTPStatus
		outcome.errorCode = apiErr.Code
		ps.logRequest(c, startTime, outcome)
		return
	}

	if !isSuccessStatus(resp.StatusCode) {
		apiErr := ps.upstreamStatusError(c, resp.StatusCode, body)
		outcome.statusCode = apiErr.HTTPStatus
		outcome.errorCode = apiErr.Code
		ps.logRequest(c, startTime, outcome)
		return
	}

	result, err := out.TransformResponse(body)
	if err != nil {
		logrus.WithError(err).Error("Failed to decode backend response")
		apiErr := app_errors.NewAPIError(app_errors.ErrUpstreamError, "backend returned an undecodable response")
		if ps.metrics != nil {
			ps.metrics.RecordUpstreamFailure("error")
		}
		response.Error(c, apiErr)
		outcome.statusCode = apiErr.HTTPStatus
		outcome.errorCode = apiErr.Code
		ps.logRequest(c, startTime, outcome)
		return
	}

	clientBody, err := in.TransformResponse(result)
	if err != nil {
		logrus.WithError(err).Error("Failed to render completion envelope")
		response.Error(c, app_errors.ErrInternalServer)
		outcome.statusCode = http.StatusInternalServerError
		outcome.errorCode = app_errors.ErrInternalServer.Code
		ps.logRequest(c, startTime, outcome)
		return
	}

	response.RawJSON(c, clientBody)

	outcome.statusCode = http.StatusOK
	outcome.promptTokens = result.PromptTokens
	outcome.completionTokens = result.CompletionTokens
	ps.logRequest(c, startTime, outcome)
}

// executeStreaming drives the backend's newline-delimited stream and
// relays it as server-sent events, one per content delta.
func (ps *ProxyServer) executeStreaming(
	c *gin.Context,
	startTime time.Time,
	outcome requestOutcome,
	upstreamReq *http.Request,
	in model.Inbound,
	out model.Outbound,
) {
	resp, err := ps.channel.ExecuteStream(upstreamReq)
	if err != nil {
		apiErr := ps.failUpstream(c, err)
		outcome.statusCode = apiErr.HTTPStatus
		outcome.errorCode = apiErr.Code
		ps.logRequest(c, startTime, outcome)
		return
	}
	defer resp.Body.Close()

	if !isSuccessStatus(resp.StatusCode) {
		preview, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if readErr != nil {
			preview = nil
		}
		apiErr := ps.upstreamStatusError(c, resp.StatusCode, preview)
		outcome.statusCode = apiErr.HTTPStatus
		outcome.errorCode = apiErr.Code
		ps.logRequest(c, startTime, outcome)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		logrus.Error("Streaming unsupported by response writer")
		response.Error(c, app_errors.ErrInternalServer)
		outcome.statusCode = http.StatusInternalServerError
		outcome.errorCode = app_errors.ErrInternalServer.Code
		ps.logRequest(c, startTime, outcome)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	reader := streamio.NewLineReader(resp.Body)
	outcome.statusCode = http.StatusOK

	for {
		line, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				// Stream ended without done:true: finish quietly, no sentinel.
				break
			}
			if ctx.Err() != nil || app_errors.IsIgnorableError(err) {
				// Client went away; the canceled context tears down the
				// backend read with it.
				outcome.statusCode = statusClientClosedRequest
				outcome.errorCode = "client_closed_request"
				ps.logRequest(c, startTime, outcome)
				return
			}
			logUpstreamError("reading backend stream", err)
			outcome.errorCode = "stream_interrupted"
			break
		}

		fragment, err := out.TransformStream(line)
		if err != nil {
			// One bad line never aborts the stream.
			if ps.metrics != nil {
				ps.metrics.RecordStreamBadLine()
			}
			logrus.WithError(err).Debug("Dropping undecodable stream line")
			continue
		}
		if fragment == nil {
			continue
		}

		if fragment.DeltaText != "" {
			event, err := in.TransformStream(fragment)
			if err != nil {
				logrus.WithError(err).Debug("Failed to render stream event")
				continue
			}
			if _, err := c.Writer.Write(event); err != nil {
				logUpstreamError("writing stream event", err)
				outcome.statusCode = statusClientClosedRequest
				outcome.errorCode = "client_closed_request"
				ps.logRequest(c, startTime, outcome)
				return
			}
			flusher.Flush()
			if ps.metrics != nil {
				ps.metrics.RecordStreamEvent()
			}
		}

		if fragment.Done {
			c.Writer.Write(in.DoneEvent())
			flusher.Flush()
			break
		}
	}

	ps.logRequest(c, startTime, outcome)
}
