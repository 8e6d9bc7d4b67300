package app_errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"llamabridge/internal/utils"
)

// maxBodyPreview bounds the slice of an upstream error body relayed to
// the caller.
const maxBodyPreview = 1024

// APIError is the gateway's error unit: an HTTP status, a stable machine
// code, and a short human message. It never carries internal detail.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Predefined API errors
var (
	ErrMalformedRequest    = &APIError{HTTPStatus: http.StatusBadRequest, Code: "malformed_request", Message: "request body is not valid JSON"}
	ErrMissingInput        = &APIError{HTTPStatus: http.StatusBadRequest, Code: "missing_input", Message: "embedding input is required"}
	ErrStreamNotSupported  = &APIError{HTTPStatus: http.StatusNotImplemented, Code: "stream_not_supported", Message: "streaming is not supported on this endpoint"}
	ErrRouteNotFound       = &APIError{HTTPStatus: http.StatusNotFound, Code: "not_found", Message: "unknown API route"}
	ErrUpstreamUnreachable = &APIError{HTTPStatus: http.StatusBadGateway, Code: "upstream_unreachable", Message: "backend is unreachable"}
	ErrUpstreamError       = &APIError{HTTPStatus: http.StatusBadGateway, Code: "upstream_error", Message: "backend returned an error"}
	ErrInternalServer      = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
)

// NewAPIError returns a copy of base with its message replaced.
func NewAPIError(base *APIError, message string) *APIError {
	return &APIError{
		HTTPStatus: base.HTTPStatus,
		Code:       base.Code,
		Message:    message,
	}
}

// NewAPIErrorf returns a copy of base with a formatted message.
func NewAPIErrorf(base *APIError, format string, args ...any) *APIError {
	return NewAPIError(base, fmt.Sprintf(format, args...))
}

// NewUpstreamError builds the gateway error for a non-success backend
// status, relaying the status and a truncated body preview.
func NewUpstreamError(statusCode int, body []byte) *APIError {
	preview := utils.TruncateString(strings.TrimSpace(string(body)), maxBodyPreview)
	if preview == "" {
		preview = "(empty body)"
	}
	return NewAPIErrorf(ErrUpstreamError, "backend returned status %d: %s", statusCode, preview)
}

// NewUpstreamUnreachable builds the gateway error for a transport-level
// failure reaching the backend.
func NewUpstreamUnreachable(err error) *APIError {
	if err == nil {
		return ErrUpstreamUnreachable
	}
	return NewAPIErrorf(ErrUpstreamUnreachable, "backend is unreachable: %s", summarizeTransportError(err))
}

// summarizeTransportError reduces a transport error chain to a short,
// caller-safe phrase.
func summarizeTransportError(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNS lookup failed"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection refused"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return "connection failed"
}

// IsIgnorableError reports whether err is an expected side effect of the
// client going away mid-response. These are logged quietly, not surfaced
// as failures.
func IsIgnorableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "client disconnected")
}
