package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"

	"github.com/kbukum/medpipe/httpclient"
)

var jsonHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
}

// Client speaks JSON over an httpclient.Adapter, whose Name, IsAvailable and
// Close it exposes.
type Client struct {
	*httpclient.Adapter
}

// New builds a client for cfg. JSON content negotiation headers are added
// unless cfg already sets them.
func New(cfg httpclient.Config, opts ...httpclient.Option) (*Client, error) {
	headers := maps.Clone(jsonHeaders)
	maps.Copy(headers, cfg.Headers)
	cfg.Headers = headers

	a, err := httpclient.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{Adapter: a}, nil
}

// RequestOption adjusts one request.
type RequestOption func(*httpclient.Request)

// WithQuery sets the query parameters.
func WithQuery(params map[string]string) RequestOption {
	return func(r *httpclient.Request) { r.Query = params }
}

// WithMaxBytes caps the response body for this request.
func WithMaxBytes(n int64) RequestOption {
	return func(r *httpclient.Request) { r.MaxBytes = n }
}

// Response is a decoded reply.
type Response[T any] struct {
	StatusCode int
	Header     http.Header
	Data       T
}

// Get decodes the JSON reply to GET path.
func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (*Response[T], error) {
	return call[T](ctx, c, httpclient.Request{Method: http.MethodGet, Path: path}, opts)
}

// Post sends body as JSON and decodes the reply.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return call[T](ctx, c, httpclient.Request{Method: http.MethodPost, Path: path, Body: body}, opts)
}

func call[T any](ctx context.Context, c *Client, req httpclient.Request, opts []RequestOption) (*Response[T], error) {
	for _, opt := range opts {
		opt(&req)
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &Response[T]{StatusCode: resp.StatusCode, Header: resp.Header}
	// An empty body (204) leaves Data at its zero value.
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out.Data); err != nil {
		return nil, fmt.Errorf("rest: decode %s %s: %w", req.Method, req.Path, err)
	}
	return out, nil
}
