package response

import (
	"net/http"

	app_errors "llamabridge/internal/errors"

	"github.com/gin-gonic/gin"
)

// errorBody is the error envelope returned to callers, matching the
// front API's error convention.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Error writes an APIError as a JSON error envelope and aborts the
// request.
func Error(c *gin.Context, apiErr *app_errors.APIError) {
	c.AbortWithStatusJSON(apiErr.HTTPStatus, errorBody{
		Error: errorDetail{
			Message: apiErr.Message,
			Type:    errorType(apiErr.HTTPStatus),
			Code:    apiErr.Code,
		},
	})
}

// errorType maps a status class to the front API's error type string.
func errorType(status int) string {
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return "invalid_request_error"
	}
	return "api_error"
}

// JSON writes a success payload.
func JSON(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// RawJSON writes pre-serialized JSON bytes.
func RawJSON(c *gin.Context, data []byte) {
	c.Data(http.StatusOK, "application/json", data)
}
