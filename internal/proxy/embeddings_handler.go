package proxy

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	app_errors "llamabridge/internal/errors"
	"llamabridge/internal/models"
	"llamabridge/internal/response"
	"llamabridge/internal/transformer/inbound"
	"llamabridge/internal/transformer/model"
	"llamabridge/internal/transformer/outbound"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// handleEmbeddings fans one front-API embedding request out into one
// backend call per input and reassembles the vectors in input order.
func (ps *ProxyServer) handleEmbeddings(c *gin.Context) {
	startTime := time.Now()

	body, ok := ps.readRequestBody(c)
	if !ok {
		ps.logRequest(c, startTime, requestOutcome{
			operation:  models.OperationEmbeddings,
			statusCode: http.StatusBadRequest,
			errorCode:  app_errors.ErrMalformedRequest.Code,
		})
		return
	}

	in := inbound.GetEmbeddingInbound()
	out := outbound.GetEmbeddingOutbound()

	batch, err := in.TransformRequest(body)
	if err != nil {
		var apiErr *app_errors.APIError
		if errors.Is(err, model.ErrMissingInput) {
			apiErr = app_errors.ErrMissingInput
		} else {
			apiErr = app_errors.NewAPIError(app_errors.ErrMalformedRequest, err.Error())
		}
		response.Error(c, apiErr)
		ps.logRequest(c, startTime, requestOutcome{
			operation:  models.OperationEmbeddings,
			statusCode: apiErr.HTTPStatus,
			errorCode:  apiErr.Code,
		})
		return
	}

	requestedModel := batch.Model
	resolved := ps.resolver.Resolve(requestedModel)
	batch.Model = resolved

	if ps.metrics != nil {
		ps.metrics.RecordEmbeddingBatch(len(batch.Inputs))
	}

	outcome := requestOutcome{
		operation:      models.OperationEmbeddings,
		requestedModel: requestedModel,
		resolvedModel:  resolved,
		params:         datatypes.JSONMap{"batch_size": len(batch.Inputs)},
	}

	results, apiErr := ps.fanOutEmbeddings(c.Request.Context(), batch, out)
	if apiErr != nil {
		if c.Request.Context().Err() != nil {
			// Client left while the batch was in flight.
			outcome.statusCode = statusClientClosedRequest
			outcome.errorCode = "client_closed_request"
			ps.logRequest(c, startTime, outcome)
			return
		}
		if ps.metrics != nil {
			if apiErr.Code == "upstream_unreachable" {
				ps.metrics.RecordUpstreamFailure("unreachable")
			} else {
				ps.metrics.RecordUpstreamFailure("error")
			}
		}
		response.Error(c, apiErr)
		outcome.statusCode = apiErr.HTTPStatus
		outcome.errorCode = apiErr.Code
		ps.logRequest(c, startTime, outcome)
		return
	}

	clientBody, err := in.TransformResponse(results, resolved)
	if err != nil {
		logrus.WithError(err).Error("Failed to render embedding envelope")
		response.Error(c, app_errors.ErrInternalServer)
		outcome.statusCode = http.StatusInternalServerError
		outcome.errorCode = app_errors.ErrInternalServer.Code
		ps.logRequest(c, startTime, outcome)
		return
	}

	response.RawJSON(c, clientBody)

	outcome.statusCode = http.StatusOK
	ps.logRequest(c, startTime, outcome)
}

// fanOutEmbeddings issues one backend call per input. The first failure
// cancels the remaining calls and fails the whole batch; successful
// vectors land at their input's index.
func (ps *ProxyServer) fanOutEmbeddings(
	ctx context.Context,
	batch *model.EmbeddingBatch,
	out model.EmbeddingOutbound,
) ([]model.EmbeddingResult, *app_errors.APIError) {
	results := make([]model.EmbeddingResult, len(batch.Inputs))

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr *app_errors.APIError

	for i, input := range batch.Inputs {
		wg.Add(1)
		go func(index int, text string) {
			defer wg.Done()

			vector, apiErr := ps.embedOne(callCtx, batch.Model, text, out)
			if apiErr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = apiErr
					cancel()
				}
				mu.Unlock()
				return
			}
			results[index] = model.EmbeddingResult{Index: index, Vector: vector}
		}(i, input)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// embedOne performs a single backend embedding call.
func (ps *ProxyServer) embedOne(
	ctx context.Context,
	modelTag string,
	input string,
	out model.EmbeddingOutbound,
) ([]float64, *app_errors.APIError) {
	req, err := out.TransformRequest(ctx, modelTag, input, ps.channel.BaseURL())
	if err != nil {
		return nil, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error())
	}

	resp, err := ps.channel.Execute(req)
	if err != nil {
		if apiErr, ok := err.(*app_errors.APIError); ok {
			return nil, apiErr
		}
		return nil, app_errors.NewUpstreamUnreachable(err)
	}

	body, err := ps.channel.ReadResponseBody(resp)
	if err != nil {
		return nil, app_errors.NewUpstreamUnreachable(err)
	}

	if !isSuccessStatus(resp.StatusCode) {
		return nil, app_errors.NewUpstreamError(resp.StatusCode, body)
	}

	parsed := out.TransformResponse(body)
	if len(parsed) == 0 {
		// Unrecognized body shape: a degenerate empty vector, not a failure.
		return []float64{}, nil
	}
	return parsed[0].Vector, nil
}
