package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/kbukum/medpipe/errors"
	"github.com/kbukum/medpipe/httpclient"
	"github.com/kbukum/medpipe/httpclient/rest"
)

// ErrNoDialect is returned by NewWithDialect when dialect is nil.
var ErrNoDialect = errors.New("llm: dialect is required")

// Adapter sends completions to one provider: the REST client handles auth,
// timeouts and response limits while the Dialect maps the wire format.
// It satisfies provider.RequestResponse and provider.Closeable.
type Adapter struct {
	client  *rest.Client
	dialect Dialect
	// defaults fill the zero fields of every request.
	defaults CompletionRequest
}

// New builds an adapter for the dialect registered as cfg.Dialect.
func New(cfg Config, opts ...httpclient.Option) (*Adapter, error) {
	d, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return NewWithDialect(d, cfg, opts...)
}

// NewWithDialect builds an adapter for d regardless of cfg.Dialect.
func NewWithDialect(d Dialect, cfg Config, opts ...httpclient.Option) (*Adapter, error) {
	if d == nil {
		return nil, ErrNoDialect
	}
	if cfg.Name == "" {
		cfg.Name = d.Name() + "-llm"
	}
	cfg.applyDefaults()

	client, err := rest.New(cfg.httpConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("llm %s: %w", cfg.Name, err)
	}
	return &Adapter{
		client:  client,
		dialect: d,
		defaults: CompletionRequest{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
	}, nil
}

func (a *Adapter) Name() string { return a.client.Name() }

// Model is the model used when a request names none.
func (a *Adapter) Model() string { return a.defaults.Model }

// Dialect is the wire mapping in use.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// IsAvailable calls the dialect's health path, or falls back to the client's
// own check when the dialect has none.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	path := a.dialect.HealthPath()
	if path == "" {
		return a.client.IsAvailable(ctx)
	}
	_, err := rest.Get[json.RawMessage](ctx, a.client, path)
	return err == nil
}

func (a *Adapter) Close(ctx context.Context) error { return a.client.Close(ctx) }

// Execute runs one completion. Transport failures keep their
// *httpclient.Error in the chain; a response the dialect cannot read is a
// MalformedUpstream error.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if req.Model == "" {
		req.Model = a.defaults.Model
	}
	if req.Temperature == 0 {
		req.Temperature = a.defaults.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.defaults.MaxTokens
	}

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: encode %s request: %w", a.dialect.Name(), err)
	}
	raw, err := rest.Post[json.RawMessage](ctx, a.client, a.dialect.ChatPath(), body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm %s: %w", a.Name(), err)
	}
	out, err := a.dialect.ParseResponse(raw.Data)
	if err != nil {
		return CompletionResponse{}, apperrors.MalformedUpstream("completion", "The language model returned an unreadable response.").
			WithCause(err).
			WithDetail("dialect", a.dialect.Name())
	}
	return *out, nil
}
