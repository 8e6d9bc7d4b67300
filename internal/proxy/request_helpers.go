package proxy

import (
	"io"
	"net/http"

	app_errors "llamabridge/internal/errors"
	"llamabridge/internal/response"
	"llamabridge/internal/transformer/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// maxRequestBodySize bounds inbound bodies; prompts are text, so anything
// beyond this is a mistake or abuse.
const maxRequestBodySize = 8 << 20

// statusClientClosedRequest mirrors nginx's non-standard code for logging
// requests the client walked away from.
const statusClientClosedRequest = 499

// logUpstreamError provides a centralized way to log errors from upstream interactions.
func logUpstreamError(context string, err error) {
	if err == nil {
		return
	}
	if app_errors.IsIgnorableError(err) {
		logrus.Debugf("Ignorable upstream error in %s: %v", context, err)
	} else {
		logrus.Errorf("Upstream error in %s: %v", context, err)
	}
}

// readRequestBody drains the inbound body. A false return means the
// response has already been written.
func (ps *ProxyServer) readRequestBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBodySize+1))
	c.Request.Body.Close()
	if err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrMalformedRequest, "failed to read request body"))
		return nil, false
	}
	if len(body) > maxRequestBodySize {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrMalformedRequest, "request body too large"))
		return nil, false
	}
	return body, true
}

// failUpstream writes the APIError mapped from a failed backend call and
// bumps the failure counters. Client disconnects write nothing.
func (ps *ProxyServer) failUpstream(c *gin.Context, err error) *app_errors.APIError {
	if app_errors.IsIgnorableError(err) {
		logrus.Debugf("Client closed request: %v", err)
		return &app_errors.APIError{HTTPStatus: statusClientClosedRequest, Code: "client_closed_request", Message: "client closed request"}
	}

	apiErr, ok := err.(*app_errors.APIError)
	if !ok {
		apiErr = app_errors.NewUpstreamUnreachable(err)
	}

	if ps.metrics != nil {
		switch apiErr.Code {
		case "upstream_unreachable":
			ps.metrics.RecordUpstreamFailure("unreachable")
		default:
			ps.metrics.RecordUpstreamFailure("error")
		}
	}

	response.Error(c, apiErr)
	return apiErr
}

// upstreamStatusError turns a non-success backend status into the 502
// envelope, preserving a truncated body preview.
func (ps *ProxyServer) upstreamStatusError(c *gin.Context, statusCode int, body []byte) *app_errors.APIError {
	apiErr := app_errors.NewUpstreamError(statusCode, body)
	if ps.metrics != nil {
		ps.metrics.RecordUpstreamFailure("error")
	}
	response.Error(c, apiErr)
	return apiErr
}

// isSuccessStatus reports whether the backend answered in the 2xx range.
func isSuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

// paramsMap flattens generation parameters for the request log row.
func paramsMap(params model.GenerationParams) datatypes.JSONMap {
	return datatypes.JSONMap{
		"temperature": params.Temperature,
		"top_p":       params.TopP,
		"max_tokens":  params.MaxTokens,
		"num_ctx":     params.ContextWindow,
	}
}
