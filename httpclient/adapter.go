package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/kbukum/medpipe/resilience"
)

// errorBodyPrefix bounds how much of an error reply is kept for logs.
const errorBodyPrefix = 4 << 10

// Adapter sends buffered HTTP calls with auth, response size limits and the
// optional retry, circuit breaker and rate limiter from its Config. It
// satisfies provider.RequestResponse[Request, *Response].
type Adapter struct {
	client  *http.Client
	cfg     Config
	breaker *resilience.CircuitBreaker
	limiter *resilience.RateLimiter
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithTransport replaces the round tripper, which lets tests stub the network.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *Adapter) { a.client.Transport = rt }
}

// New validates cfg after defaults and builds an adapter.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Adapter{
		client: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone(), Timeout: cfg.Timeout},
		cfg:    cfg,
	}
	if cfg.CircuitBreaker != nil {
		a.breaker = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		a.limiter = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Adapter) Name() string { return a.cfg.Name }

// IsAvailable is false while the circuit breaker is open.
func (a *Adapter) IsAvailable(context.Context) bool {
	return a.breaker == nil || a.breaker.State() != resilience.StateOpen
}

// Close drops idle connections.
func (a *Adapter) Close(context.Context) error {
	a.client.CloseIdleConnections()
	return nil
}

// Execute is Do under the provider signature.
func (a *Adapter) Execute(ctx context.Context, req Request) (*Response, error) {
	return a.Do(ctx, req)
}

// Do sends req and buffers the reply. A non-2xx reply comes back together
// with its classified *Error.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	attempt := func() (*Response, error) { return a.guarded(ctx, req) }
	if a.cfg.Retry == nil {
		return attempt()
	}
	return resilience.Retry(ctx, *a.cfg.Retry, attempt)
}

// guarded runs one attempt behind the rate limiter and circuit breaker.
func (a *Adapter) guarded(ctx context.Context, req Request) (*Response, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, transportError(ctx, err)
		}
	}
	if a.breaker == nil {
		return a.send(ctx, req)
	}
	var resp *Response
	err := a.breaker.Execute(func() (err error) {
		resp, err = a.send(ctx, req)
		return err
	})
	return resp, err
}

func (a *Adapter) send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := a.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	raw, err := a.client.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer func() { _ = raw.Body.Close() }()

	resp := &Response{StatusCode: raw.StatusCode, Header: raw.Header}
	if e := ClassifyStatusCode(raw.StatusCode, nil); e != nil {
		e.Body, _ = io.ReadAll(io.LimitReader(raw.Body, errorBodyPrefix))
		return resp, e
	}

	limit := a.cfg.MaxResponseBytes
	if req.MaxBytes > 0 {
		limit = req.MaxBytes
	}
	// A declared length over the limit fails before any byte is read.
	if raw.ContentLength > limit {
		return resp, NewTooLargeError(limit)
	}
	resp.Body, err = ReadLimited(raw.Body, limit, raw.ContentLength)
	if err != nil {
		if IsTooLarge(err) {
			return resp, err
		}
		return resp, transportError(ctx, err)
	}
	return resp, nil
}

func (a *Adapter) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, invalidRequest("encode body: %v", err)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	r, err := http.NewRequestWithContext(ctx, method, a.resolve(req.Path), body)
	if err != nil {
		return nil, invalidRequest("build request: %v", err)
	}

	if len(req.Query) > 0 {
		q := r.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		r.URL.RawQuery = q.Encode()
	}

	h := r.Header
	if a.cfg.UserAgent != "" {
		h.Set("User-Agent", a.cfg.UserAgent)
	}
	setAll(h, a.cfg.Headers)
	setAll(h, req.Headers)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	if req.Auth != nil {
		req.Auth.apply(h)
	} else {
		a.cfg.Auth.apply(h)
	}
	return r, nil
}

// resolve joins path to the base URL unless path is already absolute.
func (a *Adapter) resolve(path string) string {
	if a.cfg.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(a.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func setAll(h http.Header, values map[string]string) {
	for k, v := range values {
		h.Set(k, v)
	}
}

// encodeBody returns the reader for body and the content type it implies,
// empty when the caller's headers decide.
func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case *MultipartBody:
		return v.encode()
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}
