// Package fabric is the REST client for the Fabric v1 API: request plumbing
// with bearer injection, typed error mapping, long-running operation polling,
// and thin wrappers for the workspace/item/folder/capacity resources.
package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattjoyce/fabctl/internal/auth"
	"github.com/mattjoyce/fabctl/internal/log"
)

// Response is a fully-read HTTP response. Reading the body eagerly keeps the
// LRO poller and workflow hooks free of stream lifetime concerns.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports whether the status is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Location returns the polling URL for a 202 response, or "".
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

// OperationID returns the x-ms-operation-id header, or "".
func (r *Response) OperationID() string {
	return r.Header.Get("x-ms-operation-id")
}

// Client talks to one Fabric environment. All methods are safe for concurrent
// use; the zero value is not usable, construct via New.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     auth.TokenProvider
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client for baseURL using tokens for bearer auth.
func New(baseURL string, tokens auth.TokenProvider, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 100 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		logger:     log.WithComponent("fabric"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes one request against the API. path may be absolute (LRO location
// URLs) or relative to the base URL. A transport-level timeout is classified
// as a synthetic 408 response rather than an error; any other transport
// failure is returned as an error. Non-2xx statuses are NOT errors here —
// resource wrappers and the LRO poller decide what a status means.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-ms-client-request-id", uuid.NewString())
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Warn("request timed out", "method", method, "url", target)
			return syntheticTimeoutResponse(), nil
		}
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug("request complete",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// get/post/patch/delete are the verb helpers the resource wrappers build on.

func (c *Client) get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

func (c *Client) patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// expectSuccess converts a non-2xx response into a typed *APIError.
func expectSuccess(resp *Response) (*Response, error) {
	if apiErr := errorFromResponse(resp); apiErr != nil {
		return nil, apiErr
	}
	return resp, nil
}

// isTimeout classifies a transport error as a retryable timeout: either the
// request context deadline fired or the net layer reports Timeout().
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Timeout()
	}
	return false
}

// syntheticTimeoutResponse is the 408-equivalent handed back for aborted
// requests, letting callers handle timeouts through the same status path as
// server-reported failures.
func syntheticTimeoutResponse() *Response {
	body, _ := json.Marshal(apiErrorBody{
		ErrorCode: "RequestTimeout",
		Message:   "The request timed out before the service responded.",
	})
	return &Response{
		StatusCode: http.StatusRequestTimeout,
		Header:     http.Header{},
		Body:       body,
	}
}
