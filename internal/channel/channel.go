// Package channel owns the HTTP connection to the Ollama backend. All
// request flows share one tuned transport; buffered calls run under an
// overall deadline while streaming calls are bounded only by connect and
// header timeouts so long generations are never cut off mid-stream.
package channel

import (
	"io"
	"net"
	"net/http"
	"time"

	"llamabridge/internal/config"
	app_errors "llamabridge/internal/errors"
	"llamabridge/internal/utils"
)

// OllamaChannel issues requests against a single Ollama base URL.
type OllamaChannel struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
}

// NewOllamaChannel builds the channel from runtime configuration.
func NewOllamaChannel(cfg *config.Manager) *OllamaChannel {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
	}

	return &OllamaChannel{
		baseURL: cfg.OllamaBaseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		// No overall timeout: the stream stays open as long as the
		// backend keeps producing and the client keeps reading.
		streamClient: &http.Client{
			Transport: transport,
		},
	}
}

// BaseURL returns the configured backend address.
func (c *OllamaChannel) BaseURL() string {
	return c.baseURL
}

// Execute performs a buffered call. Transport-level failures come back as
// upstream_unreachable; a canceled request context is passed through
// untouched so callers can tell client disconnects from backend faults.
func (c *OllamaChannel) Execute(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", utils.AcceptedEncodings)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, app_errors.NewUpstreamUnreachable(err)
	}
	return resp, nil
}

// ExecuteStream performs a streaming call. Accept-Encoding is left alone so
// the body arrives as plain newline-delimited JSON.
func (c *OllamaChannel) ExecuteStream(req *http.Request) (*http.Response, error) {
	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, app_errors.NewUpstreamUnreachable(err)
	}
	return resp, nil
}

// ReadResponseBody drains and decompresses a buffered response body.
func (c *OllamaChannel) ReadResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return utils.DecompressResponse(body, resp.Header.Get("Content-Encoding"))
}
